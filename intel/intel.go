// Package intel pulls external market sentiment: the alternative.me
// Fear & Greed index and CoinGecko's global 24h market-cap change. The
// feed answers one question for the risk governor: is the broad market
// calm enough to trade at all.
package intel

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/srllamadev/protocol-14-weex/config"
	"github.com/srllamadev/protocol-14-weex/logger"
)

const (
	defaultFearGreedURL = "https://api.alternative.me/fng/"
	defaultGlobalURL    = "https://api.coingecko.com/api/v3/global"

	// Sentiment moves slowly; both upstreams rate-limit aggressively.
	cacheTTL       = 5 * time.Minute
	requestTimeout = 10 * time.Second

	neutralFearGreed = 50
)

// Feed implements risk.MarketCheck against the public sentiment APIs.
// Fetch failures degrade to neutral readings rather than blocking trading:
// a dead sentiment API must not halt the bot.
type Feed struct {
	safety       config.Safety
	client       *http.Client
	log          logger.Logger
	fearGreedURL string
	globalURL    string

	mu        sync.Mutex
	fetchedAt time.Time
	fearGreed int
	change24h float64
}

// NewFeed builds a sentiment feed with the production endpoints.
func NewFeed(safety config.Safety, log logger.Logger) *Feed {
	return &Feed{
		safety:       safety,
		client:       &http.Client{Timeout: requestTimeout},
		log:          log,
		fearGreedURL: defaultFearGreedURL,
		globalURL:    defaultGlobalURL,
	}
}

// SafeToTrade refreshes the cached sentiment readings and applies the
// configured bounds. The reason string is surfaced verbatim to operators
// when trading is paused.
func (f *Feed) SafeToTrade(ctx context.Context) (bool, string) {
	fng, change := f.snapshot(ctx)

	if fng < f.safety.FearGreedMin {
		return false, fmt.Sprintf("Extreme Fear (%d)", fng)
	}
	if fng > f.safety.FearGreedMax {
		return false, fmt.Sprintf("Extreme Greed (%d)", fng)
	}
	if change > f.safety.MaxMarketMove || change < -f.safety.MaxMarketMove {
		return false, fmt.Sprintf("market moving too fast: %+.1f%% in 24h", change)
	}
	return true, "ok"
}

func (f *Feed) snapshot(ctx context.Context) (int, float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if time.Since(f.fetchedAt) < cacheTTL && !f.fetchedAt.IsZero() {
		return f.fearGreed, f.change24h
	}

	fng, err := f.fetchFearGreed(ctx)
	if err != nil {
		f.log.Warn("fear/greed fetch failed, assuming neutral", logger.Err(err))
		fng = neutralFearGreed
	}
	change, err := f.fetchGlobalChange(ctx)
	if err != nil {
		f.log.Warn("global market fetch failed, assuming flat", logger.Err(err))
		change = 0
	}

	f.fearGreed = fng
	f.change24h = change
	f.fetchedAt = time.Now()
	return fng, change
}

func (f *Feed) fetchFearGreed(ctx context.Context) (int, error) {
	var payload struct {
		Data []struct {
			Value string `json:"value"`
		} `json:"data"`
	}
	if err := f.getJSON(ctx, f.fearGreedURL, &payload); err != nil {
		return 0, err
	}
	if len(payload.Data) == 0 {
		return 0, fmt.Errorf("fear/greed: empty data")
	}
	v, err := strconv.Atoi(payload.Data[0].Value)
	if err != nil {
		return 0, fmt.Errorf("fear/greed: parse value %q: %w", payload.Data[0].Value, err)
	}
	return v, nil
}

func (f *Feed) fetchGlobalChange(ctx context.Context) (float64, error) {
	var payload struct {
		Data struct {
			MarketCapChange float64 `json:"market_cap_change_percentage_24h_usd"`
		} `json:"data"`
	}
	if err := f.getJSON(ctx, f.globalURL, &payload); err != nil {
		return 0, err
	}
	return payload.Data.MarketCapChange, nil
}

func (f *Feed) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
