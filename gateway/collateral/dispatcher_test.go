package collateral

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nusdcore/crypto"
)

func testAddr(b byte) crypto.Address {
	buf := make([]byte, 20)
	buf[19] = b
	return crypto.NewAddress(buf)
}

func TestTransferDispatch(t *testing.T) {
	var got transferRequest
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transfers" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	d := NewDispatcher(ts.URL, "bank-token", time.Second, nil)
	recipient := testAddr(7)
	if err := d.Transfer("ATOM", recipient, big.NewInt(9950)); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if got.Asset != "ATOM" || got.Amount != "9950" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if got.To != recipient.String() {
		t.Fatalf("unexpected recipient: %q", got.To)
	}
	if got.RequestID == "" {
		t.Fatalf("expected idempotency key")
	}
	if gotAuth != "Bearer bank-token" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
}

func TestTransferRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "asset frozen", http.StatusConflict)
	}))
	defer ts.Close()

	d := NewDispatcher(ts.URL, "", time.Second, nil)
	if err := d.Transfer("ATOM", testAddr(7), big.NewInt(1)); err == nil {
		t.Fatalf("expected rejection error")
	}
}

func TestTransferValidation(t *testing.T) {
	d := NewDispatcher("", "", time.Second, nil)
	if err := d.Transfer("ATOM", testAddr(7), big.NewInt(1)); err == nil {
		t.Fatalf("expected error for missing base URL")
	}

	d = NewDispatcher("http://127.0.0.1:1", "", time.Second, nil)
	if err := d.Transfer("ATOM", testAddr(7), nil); err == nil {
		t.Fatalf("expected error for nil amount")
	}
}
