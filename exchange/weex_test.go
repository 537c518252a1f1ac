package exchange

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/srllamadev/protocol-14-weex/config"
	"github.com/srllamadev/protocol-14-weex/logger"
	"github.com/srllamadev/protocol-14-weex/types"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...logger.Field)  {}
func (nopLogger) Warn(string, ...logger.Field)  {}
func (nopLogger) Error(string, ...logger.Field) {}

func testClient(server *httptest.Server) *Client {
	return &Client{
		baseURL: server.URL,
		creds: config.Credentials{
			APIKey:     "test-key",
			SecretKey:  "test-secret",
			Passphrase: "test-pass",
		},
		client:   server.Client(),
		log:      nopLogger{},
		validate: validator.New(),
		now:      func() time.Time { return time.UnixMilli(1700000000000) },
	}
}

func TestSign(t *testing.T) {
	cases := []struct {
		method, path, query, body, want string
	}{
		{"GET", "/capi/v2/account/assets", "", "",
			"xC6MzWDtmCecSYKFDhiyJXuP9hvdqpnGnmbL61+uhUQ="},
		{"POST", "/capi/v2/order/placeOrder", "", `{"symbol":"cmt_solusdt"}`,
			"MLhbHScaTGBrXA0kyRvXmhiQK0TgttYyQ+Sb1SUzrXs="},
	}
	for _, c := range cases {
		got := sign("test-secret", "1700000000000", c.method, c.path, c.query, c.body)
		if got != c.want {
			t.Errorf("sign(%s %s) = %s, want %s", c.method, c.path, got, c.want)
		}
	}
}

func TestUnwrap(t *testing.T) {
	if got := string(unwrap([]byte(`{"data":{"last":"1"}}`))); got != `{"last":"1"}` {
		t.Errorf("wrapped payload: %s", got)
	}
	if got := string(unwrap([]byte(`{"last":"1"}`))); got != `{"last":"1"}` {
		t.Errorf("bare payload: %s", got)
	}
	if got := string(unwrap([]byte(`{"data":null,"last":"1"}`))); got != `{"data":null,"last":"1"}` {
		t.Errorf("null data: %s", got)
	}
	if got := string(unwrap([]byte(`[[1,2]]`))); got != `[[1,2]]` {
		t.Errorf("bare array: %s", got)
	}
}

func TestGetTickerNormalizesWrappedStrings(t *testing.T) {
	var gotAuth http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Clone()
		w.Write([]byte(`{"data":{"last":"95.5","high_24h":"97.0","low_24h":85}}`))
	}))
	defer server.Close()

	c := testClient(server)
	tick, err := c.GetTicker(context.Background(), "cmt_solusdt")
	if err != nil {
		t.Fatalf("GetTicker: %v", err)
	}
	if tick.Last != 95.5 || tick.High24h != 97 || tick.Low24h != 85 {
		t.Errorf("ticker = %+v", tick)
	}

	if gotAuth.Get("ACCESS-KEY") != "test-key" || gotAuth.Get("ACCESS-PASSPHRASE") != "test-pass" {
		t.Error("auth headers missing")
	}
	wantSig := sign("test-secret", "1700000000000", "GET", "/capi/v2/market/ticker", "?symbol=cmt_solusdt", "")
	if gotAuth.Get("ACCESS-SIGN") != wantSig {
		t.Errorf("signature = %s, want %s", gotAuth.Get("ACCESS-SIGN"), wantSig)
	}
}

func TestGetTickerRejectsZeroPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"last":"0"}}`))
	}))
	defer server.Close()

	if _, err := testClient(server).GetTicker(context.Background(), "cmt_solusdt"); err == nil {
		t.Error("zero last price must be an error")
	}
}

func TestGetCandlesSortsAndParses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// mixed string/number fields, newest bar first
		w.Write([]byte(`[
			["1700000120000","101","102","100.5","101.5","900"],
			[1700000000000,100,101,99.5,100.5,1200],
			["1700000060000","100.5","101.5","100","101","800"]
		]`))
	}))
	defer server.Close()

	candles, err := testClient(server).GetCandles(context.Background(), "cmt_solusdt", "1m", 50)
	if err != nil {
		t.Fatalf("GetCandles: %v", err)
	}
	if len(candles) != 3 {
		t.Fatalf("got %d candles", len(candles))
	}
	for i := 1; i < len(candles); i++ {
		if candles[i].Timestamp <= candles[i-1].Timestamp {
			t.Fatal("candles not sorted ascending")
		}
	}
	if candles[0].Close != 100.5 || candles[0].Volume != 1200 {
		t.Errorf("oldest candle = %+v", candles[0])
	}
}

func TestGetBalancePicksMarginCoin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"coinName":"BTC","equity":"1","available":"1"},
			{"coinName":"USDT","equity":"250.5","available":"200","frozen":"50.5","unrealizePnl":"-3.2"}
		]`))
	}))
	defer server.Close()

	bal, err := testClient(server).GetBalance(context.Background())
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if bal.Equity != 250.5 || bal.Available != 200 || bal.Frozen != 50.5 || bal.UnrealizedPnL != -3.2 {
		t.Errorf("balance = %+v", bal)
	}
}

func TestPlaceOrderReturnsID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"orderId":123456789}}`))
	}))
	defer server.Close()

	id, err := testClient(server).PlaceOrder(context.Background(), types.Order{
		Symbol: "cmt_solusdt",
		Side:   types.OpenLong,
		Kind:   types.Market,
		Size:   4.0,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if id != "123456789" {
		t.Errorf("order id = %q", id)
	}
}

func TestPlaceOrderRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"40762","msg":"The order amount exceeds the balance"}`))
	}))
	defer server.Close()

	_, err := testClient(server).PlaceOrder(context.Background(), types.Order{
		Symbol: "cmt_solusdt",
		Side:   types.OpenLong,
		Kind:   types.Market,
		Size:   4.0,
	})
	if !errors.Is(err, ErrRejected) {
		t.Errorf("want ErrRejected, got %v", err)
	}
}

func TestPlaceOrderWithoutIDIsRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	_, err := testClient(server).PlaceOrder(context.Background(), types.Order{
		Symbol: "cmt_solusdt",
		Side:   types.OpenLong,
		Kind:   types.Market,
		Size:   4.0,
	})
	if !errors.Is(err, ErrRejected) {
		t.Errorf("want ErrRejected, got %v", err)
	}
}

func TestPlaceOrderValidatesSide(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid order must not reach the wire")
	}))
	defer server.Close()

	_, err := testClient(server).PlaceOrder(context.Background(), types.Order{
		Symbol: "cmt_solusdt",
		Side:   "buy",
		Kind:   types.Market,
		Size:   4.0,
	})
	if err == nil {
		t.Error("expected validation error")
	}
}
