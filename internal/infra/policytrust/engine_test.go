package policytrust

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"credlink/internal/domain"
)

const trustBundle = `package credlink.trust

default allow = false

allow {
	input.valid
}

deny[v] {
	not input.valid
	v := {"code": "low_confidence", "message": "overall confidence below threshold"}
}

result = {"allow": allow, "deny": deny}
`

func writeBundle(t *testing.T, rego string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "trust.rego"), []byte(rego), 0o600); err != nil {
		t.Fatalf("write bundle: %v", err)
	}
	return dir
}

func TestEngine_AllowsValidReport(t *testing.T) {
	engine, err := NewEngineFromBundlePath(context.Background(), writeBundle(t, trustBundle), "trust.v1")
	if err != nil {
		t.Fatalf("load bundle: %v", err)
	}
	receipt, err := engine.Evaluate(context.Background(), domain.VerificationReport{Valid: true})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if allow, _ := receipt["allow"].(bool); !allow {
		t.Fatalf("expected allow, got %+v", receipt)
	}
	if receipt["bundle_id"] != "trust.v1" {
		t.Fatalf("missing bundle id in receipt: %+v", receipt)
	}
	if hash, _ := receipt["bundle_hash"].(string); hash == "" {
		t.Fatal("missing bundle hash in receipt")
	}
}

func TestEngine_DeniesInvalidReport(t *testing.T) {
	engine, err := NewEngineFromBundlePath(context.Background(), writeBundle(t, trustBundle), "trust.v1")
	if err != nil {
		t.Fatalf("load bundle: %v", err)
	}
	receipt, err := engine.Evaluate(context.Background(), domain.VerificationReport{Valid: false})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if allow, _ := receipt["allow"].(bool); allow {
		t.Fatal("expected deny")
	}
	deny, ok := receipt["deny"].([]domain.PolicyViolation)
	if !ok || len(deny) != 1 || deny[0].Code != "low_confidence" {
		t.Fatalf("unexpected deny reasons: %+v", receipt["deny"])
	}
}

func TestEngine_BundleHashStable(t *testing.T) {
	dirA := writeBundle(t, trustBundle)
	dirB := writeBundle(t, trustBundle)
	engineA, err := NewEngineFromBundlePath(context.Background(), dirA, "trust.v1")
	if err != nil {
		t.Fatalf("load bundle: %v", err)
	}
	engineB, err := NewEngineFromBundlePath(context.Background(), dirB, "trust.v1")
	if err != nil {
		t.Fatalf("load bundle: %v", err)
	}
	if engineA.BundleHash() != engineB.BundleHash() {
		t.Fatal("identical bundles produced different hashes")
	}
	if engineA.BundleHash() == "" {
		t.Fatal("empty bundle hash")
	}
}

func TestEngine_RejectsForbiddenBuiltins(t *testing.T) {
	bundle := `package credlink.trust

result = {"allow": false, "deny": []} {
	http.send({"method": "get", "url": "https://example.com"})
}
`
	if _, err := NewEngineFromBundlePath(context.Background(), writeBundle(t, bundle), "trust.v1"); err == nil {
		t.Fatal("expected forbidden builtin to be rejected")
	}
}
