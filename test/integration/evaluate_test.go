package integration

import (
	"net/http"
	"testing"
)

func TestEvaluateChoiceBranches(t *testing.T) {
	srv := newServer(t)
	createSpace(t, srv, "mlp", loadSpace(t, "mlp.yaml"))

	// The sgd branch does not require adam_lr and vice versa: only the
	// chosen alternative is evaluated.
	code, body := evaluate(t, srv, "mlp", map[string]interface{}{
		"optimizer": "sgd",
		"sgd_lr":    0.1,
		"depth":     5,
		"dropout":   0.3,
	})
	if code != 200 {
		t.Fatalf("sgd evaluation returned %d: %v", code, body)
	}
	result := body["result"].(map[string]interface{})
	optimizer := result["optimizer"].(map[string]interface{})
	if optimizer["lr"].(float64) != 0.1 || optimizer["momentum"].(float64) != 0.9 {
		t.Errorf("optimizer = %v", optimizer)
	}
	if result["hidden_units"].(float64) != 32 {
		t.Errorf("hidden_units = %v, want 32", result["hidden_units"])
	}

	code, body = evaluate(t, srv, "mlp", map[string]interface{}{
		"optimizer": "adam",
		"adam_lr":   0.001,
		"depth":     4,
		"dropout":   0.5,
	})
	if code != 200 {
		t.Fatalf("adam evaluation returned %d: %v", code, body)
	}
	optimizer = body["result"].(map[string]interface{})["optimizer"].(map[string]interface{})
	if optimizer["lr"].(float64) != 0.001 {
		t.Errorf("adam lr = %v", optimizer["lr"])
	}
	if _, hasMomentum := optimizer["momentum"]; hasMomentum {
		t.Error("adam branch carries sgd's momentum")
	}
}

func TestEvaluateMissingDimension(t *testing.T) {
	srv := newServer(t)
	createSpace(t, srv, "mlp", loadSpace(t, "mlp.yaml"))

	code, body := evaluate(t, srv, "mlp", map[string]interface{}{
		"optimizer": "sgd",
		"depth":     5,
		"dropout":   0.3,
		// sgd_lr intentionally missing
	})
	if code != 400 {
		t.Fatalf("evaluation returned %d, want 400", code)
	}
	errObj := body["error"].(map[string]interface{})
	if errObj["status"] != "FAILED_PRECONDITION" {
		t.Errorf("error status = %v", errObj["status"])
	}
}

func TestEvaluateSharedParameter(t *testing.T) {
	srv := newServer(t)
	createSpace(t, srv, "shared", loadSpace(t, "shared.yaml"))

	code, body := evaluate(t, srv, "shared", map[string]interface{}{"wd": 0.01})
	if code != 200 {
		t.Fatalf("evaluation returned %d: %v", code, body)
	}
	result := body["result"].(map[string]interface{})
	if result["weight_decay"].(float64) != 0.01 || result["encoder_decay"].(float64) != 0.01 {
		t.Errorf("shared parameter diverged: %v", result)
	}
	if result["decoder_decay"].(float64) != 0.005 {
		t.Errorf("decoder_decay = %v, want 0.005", result["decoder_decay"])
	}
}

func TestEvaluateIsRepeatable(t *testing.T) {
	srv := newServer(t)
	createSpace(t, srv, "s", "!call:pow [!param:base, 2]\n")

	bindings := map[string]interface{}{"base": 9}
	for i := 0; i < 3; i++ {
		code, body := evaluate(t, srv, "s", bindings)
		if code != 200 {
			t.Fatalf("evaluation %d returned %d: %v", i, code, body)
		}
		if body["result"].(float64) != 81 {
			t.Errorf("evaluation %d = %v, want 81", i, body["result"])
		}
	}
}

func TestExportedSpaceReferencesAreDense(t *testing.T) {
	srv := newServer(t)
	createSpace(t, srv, "mlp", loadSpace(t, "mlp.yaml"))

	code, body := request(t, srv, http.MethodGet, "/v1/spaces/mlp/export", nil)
	if code != 200 {
		t.Fatalf("export returned %d", code)
	}
	nodes := body["nodes"].([]interface{})
	for i, raw := range nodes {
		n := raw.(map[string]interface{})
		if int(n["id"].(float64)) != i {
			t.Fatalf("node %d has id %v", i, n["id"])
		}
		if args, ok := n["args"].([]interface{}); ok {
			for _, a := range args {
				if int(a.(float64)) >= i {
					t.Errorf("node %d references %v before definition", i, a)
				}
			}
		}
	}
	if params := body["params"].([]interface{}); len(params) != 5 {
		t.Errorf("export lists %d params, want 5", len(params))
	}
}
