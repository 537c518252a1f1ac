package exchange

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/go-playground/validator/v10"

	"github.com/srllamadev/protocol-14-weex/config"
	"github.com/srllamadev/protocol-14-weex/logger"
	"github.com/srllamadev/protocol-14-weex/types"
)

const (
	// DefaultBaseURL is the WEEX contract-trading REST host.
	DefaultBaseURL = "https://api-contract.weex.com"

	marginCoin     = "USDT"
	requestTimeout = 30 * time.Second
)

// Client is the WEEX REST gateway. Safe for use from a single goroutine;
// the strategy loop is the only caller.
type Client struct {
	baseURL  string
	creds    config.Credentials
	client   *http.Client
	log      logger.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewClient builds a WEEX client against the production host.
func NewClient(creds config.Credentials, log logger.Logger) *Client {
	return &Client{
		baseURL:  DefaultBaseURL,
		creds:    creds,
		client:   &http.Client{Timeout: requestTimeout},
		log:      log,
		validate: validator.New(),
		now:      time.Now,
	}
}

// flexFloat decodes WEEX numeric fields, which arrive as JSON numbers or
// quoted strings depending on the endpoint.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse numeric %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

// flexString decodes id fields that arrive as strings or bare numbers.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		s = ""
	}
	*f = flexString(s)
	return nil
}

// sign produces the ACCESS-SIGN header value:
// Base64(HMAC-SHA256(timestamp + METHOD + path + query + body, secret)).
// The query string includes its leading "?"; body is empty for GETs.
func sign(secret, timestamp, method, path, query, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + strings.ToUpper(method) + path + query + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// unwrap strips the optional {"data": ...} envelope. WEEX wraps some
// responses and returns others bare; callers always decode the inner form.
func unwrap(body []byte) []byte {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		return env.Data
	}
	return body
}

func (c *Client) do(ctx context.Context, method, path, query string, reqBody, out any) error {
	var body []byte
	if reqBody != nil {
		var err error
		if body, err = json.Marshal(reqBody); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+query, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("locale", "en-US")
	if c.creds.APIKey != "" {
		ts := strconv.FormatInt(c.now().UnixMilli(), 10)
		req.Header.Set("ACCESS-KEY", c.creds.APIKey)
		req.Header.Set("ACCESS-SIGN", sign(c.creds.SecretKey, ts, method, path, query, string(body)))
		req.Header.Set("ACCESS-TIMESTAMP", ts)
		req.Header.Set("ACCESS-PASSPHRASE", c.creds.Passphrase)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, truncate(raw))
	}
	if err := apiError(raw); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(unwrap(raw), out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// apiError surfaces WEEX application-level rejections, which come back with
// HTTP 200 and a non-zero code field.
func apiError(raw []byte) error {
	var env struct {
		Code flexString `json:"code"`
		Msg  string     `json:"msg"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil // bare arrays and the like carry no code field
	}
	code := string(env.Code)
	if code == "" || code == "0" || code == "00000" {
		return nil
	}
	return fmt.Errorf("%w: code %s: %s", ErrRejected, code, env.Msg)
}

func truncate(b []byte) string {
	const n = 200
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// GetTicker fetches and normalizes the 24h ticker for a symbol.
func (c *Client) GetTicker(ctx context.Context, symbol string) (types.Ticker, error) {
	var payload struct {
		Last    flexFloat `json:"last"`
		High24h flexFloat `json:"high_24h"`
		Low24h  flexFloat `json:"low_24h"`
	}
	query := "?symbol=" + symbol
	if err := c.do(ctx, http.MethodGet, "/capi/v2/market/ticker", query, nil, &payload); err != nil {
		return types.Ticker{}, err
	}
	t := types.Ticker{
		Last:    float64(payload.Last),
		High24h: float64(payload.High24h),
		Low24h:  float64(payload.Low24h),
	}
	if t.Last <= 0 {
		return types.Ticker{}, fmt.Errorf("ticker %s: no last price", symbol)
	}
	return t, nil
}

// GetCandles fetches OHLCV bars. WEEX returns an array of
// [timestamp, open, high, low, close, volume] rows in arbitrary order;
// the result is sorted ascending by timestamp.
func (c *Client) GetCandles(ctx context.Context, symbol, granularity string, limit int) ([]types.Candle, error) {
	var rows [][]flexFloat
	query := fmt.Sprintf("?symbol=%s&granularity=%s&limit=%d", symbol, granularity, limit)
	if err := c.do(ctx, http.MethodGet, "/capi/v2/market/candles", query, nil, &rows); err != nil {
		return nil, err
	}
	candles := make([]types.Candle, 0, len(rows))
	for _, r := range rows {
		if len(r) < 6 {
			continue
		}
		candles = append(candles, types.Candle{
			Timestamp: int64(r[0]),
			Open:      float64(r[1]),
			High:      float64(r[2]),
			Low:       float64(r[3]),
			Close:     float64(r[4]),
			Volume:    float64(r[5]),
		})
	}
	types.SortCandles(candles)
	return candles, nil
}

// GetBalance returns the USDT margin account snapshot.
func (c *Client) GetBalance(ctx context.Context) (types.Balance, error) {
	var assets []struct {
		CoinName      string    `json:"coinName"`
		Equity        flexFloat `json:"equity"`
		Available     flexFloat `json:"available"`
		Frozen        flexFloat `json:"frozen"`
		UnrealizedPnL flexFloat `json:"unrealizePnl"`
	}
	if err := c.do(ctx, http.MethodGet, "/capi/v2/account/assets", "", nil, &assets); err != nil {
		return types.Balance{}, err
	}
	for _, a := range assets {
		if a.CoinName == marginCoin {
			return types.Balance{
				Equity:        float64(a.Equity),
				Available:     float64(a.Available),
				Frozen:        float64(a.Frozen),
				UnrealizedPnL: float64(a.UnrealizedPnL),
			}, nil
		}
	}
	return types.Balance{}, fmt.Errorf("no %s asset in account response", marginCoin)
}

// SetLeverage configures the leverage multiplier for a symbol.
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	body := map[string]string{
		"symbol":     symbol,
		"marginCoin": marginCoin,
		"leverage":   strconv.Itoa(leverage),
	}
	return c.do(ctx, http.MethodPost, "/capi/v2/account/setLeverage", "", body, nil)
}

type orderRequest struct {
	Symbol     string `json:"symbol" validate:"required"`
	MarginCoin string `json:"marginCoin" validate:"required"`
	Size       string `json:"size" validate:"required"`
	Side       string `json:"side" validate:"oneof=open_long open_short close_long close_short"`
	OrderType  string `json:"orderType" validate:"oneof=market limit"`
	Price      string `json:"price,omitempty"`
}

// PlaceOrder submits an order and returns the exchange order id. A response
// without an order id is a rejection even when the HTTP layer succeeded.
func (c *Client) PlaceOrder(ctx context.Context, order types.Order) (string, error) {
	req := orderRequest{
		Symbol:     order.Symbol,
		MarginCoin: marginCoin,
		Size:       strconv.FormatFloat(order.Size, 'f', -1, 64),
		Side:       string(order.Side),
		OrderType:  string(order.Kind),
	}
	if order.Kind == types.Limit {
		req.Price = strconv.FormatFloat(order.Price, 'f', -1, 64)
	}
	if err := c.validate.Struct(req); err != nil {
		return "", fmt.Errorf("invalid order: %w", err)
	}

	var res struct {
		OrderID flexString `json:"order_id"`
		AltID   flexString `json:"orderId"`
	}
	if err := c.do(ctx, http.MethodPost, "/capi/v2/order/placeOrder", "", req, &res); err != nil {
		return "", err
	}
	id := string(res.OrderID)
	if id == "" {
		id = string(res.AltID)
	}
	if id == "" {
		return "", fmt.Errorf("%w: no order id in response", ErrRejected)
	}
	c.log.Info("order placed",
		logger.String("symbol", order.Symbol),
		logger.String("side", string(order.Side)),
		logger.Float64("size", order.Size),
		logger.String("order_id", id))
	return id, nil
}

// CancelOrder cancels a pending order by id.
func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) error {
	body := map[string]string{
		"symbol":     symbol,
		"marginCoin": marginCoin,
		"orderId":    orderID,
	}
	return c.do(ctx, http.MethodPost, "/capi/v2/order/cancelOrder", "", body, nil)
}

// GetOpenPositions lists all open positions on the account.
func (c *Client) GetOpenPositions(ctx context.Context) ([]PositionInfo, error) {
	var rows []struct {
		Symbol     string    `json:"symbol"`
		Side       string    `json:"side"`
		Size       flexFloat `json:"size"`
		EntryPrice flexFloat `json:"averageOpenPrice"`
	}
	if err := c.do(ctx, http.MethodGet, "/capi/v2/position/allPosition", "", nil, &rows); err != nil {
		return nil, err
	}
	out := make([]PositionInfo, 0, len(rows))
	for _, r := range rows {
		out = append(out, PositionInfo{
			Symbol:     r.Symbol,
			Side:       types.Side(r.Side),
			Size:       float64(r.Size),
			EntryPrice: float64(r.EntryPrice),
		})
	}
	return out, nil
}

// GetOpenOrders lists pending orders, optionally filtered by symbol.
func (c *Client) GetOpenOrders(ctx context.Context, symbol string) ([]OrderInfo, error) {
	query := ""
	if symbol != "" {
		query = "?symbol=" + symbol
	}
	var rows []struct {
		OrderID flexString `json:"order_id"`
		AltID   flexString `json:"orderId"`
		Symbol  string     `json:"symbol"`
		Side    string     `json:"side"`
		Size    flexFloat  `json:"size"`
		Price   flexFloat  `json:"price"`
	}
	if err := c.do(ctx, http.MethodGet, "/capi/v2/order/current", query, nil, &rows); err != nil {
		return nil, err
	}
	out := make([]OrderInfo, 0, len(rows))
	for _, r := range rows {
		id := string(r.OrderID)
		if id == "" {
			id = string(r.AltID)
		}
		out = append(out, OrderInfo{
			OrderID: id,
			Symbol:  r.Symbol,
			Side:    types.Side(r.Side),
			Size:    float64(r.Size),
			Price:   float64(r.Price),
		})
	}
	return out, nil
}
