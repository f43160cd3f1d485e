// UI smoke tests against a running ledgerd instance. Skipped unless
// LEDGER_UI_TESTS=1 and a server is reachable at LEDGER_TEST_URL
// (default http://localhost:4310).
package ui

import (
	"os"
	"testing"

	"github.com/sharedfund/ledgerd/tests/common"
)

func requireUITests(t *testing.T) {
	t.Helper()
	if os.Getenv("LEDGER_UI_TESTS") != "1" {
		t.Skip("set LEDGER_UI_TESTS=1 to run browser tests")
	}
}

func TestLedgerPageLoads(t *testing.T) {
	requireUITests(t)

	ctx, cancel := common.NewBrowserContext(nil)
	defer cancel()

	collector := common.NewJSErrorCollector(ctx)

	if err := common.NavigateAndWait(ctx, common.ServerURL()+"/", 0); err != nil {
		t.Fatalf("failed to load ledger page: %v", err)
	}

	for _, selector := range []string{
		"#portfolio-value",
		"#positions",
		"#history",
		"#mark-form",
		"#capital-form",
	} {
		exists, err := common.Exists(ctx, selector)
		if err != nil {
			t.Fatalf("check %s: %v", selector, err)
		}
		if !exists {
			t.Errorf("expected element %s on ledger page", selector)
		}
	}

	if collector.HasErrors() {
		t.Errorf("JS errors on page load: %v", collector.Errors())
	}
}

func TestLedgerPageShowsPartners(t *testing.T) {
	requireUITests(t)

	ctx, cancel := common.NewBrowserContext(nil)
	defer cancel()

	if err := common.NavigateAndWait(ctx, common.ServerURL()+"/", 0); err != nil {
		t.Fatalf("failed to load ledger page: %v", err)
	}

	count, err := common.ElementCount(ctx, "#positions .position-card")
	if err != nil {
		t.Fatalf("count position cards: %v", err)
	}
	if count < 1 {
		t.Errorf("expected at least one partner position card, got %d", count)
	}
}
