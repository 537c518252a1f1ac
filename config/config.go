// Package config exposes the strongly typed bot configuration loaded from
// YAML plus exchange credentials loaded from the environment.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/srllamadev/protocol-14-weex/types"
)

// App captures process-wide runtime settings.
type App struct {
	Name        string `yaml:"name"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	JournalDir  string `yaml:"journal_dir"`
}

// Safety bounds the external market-safety gate.
type Safety struct {
	FearGreedMin  int     `yaml:"fear_greed_min"`  // below = extreme fear, pause
	FearGreedMax  int     `yaml:"fear_greed_max"`  // above = extreme greed, pause
	MaxMarketMove float64 `yaml:"max_market_move"` // |global 24h %| ceiling
}

// Limits encodes the global risk guard-rails.
type Limits struct {
	MaxDailyLoss    float64 `yaml:"max_daily_loss"`
	MaxDailyTrades  int     `yaml:"max_daily_trades"`
	MinBalance      float64 `yaml:"min_balance"`
	MaxPositions    int     `yaml:"max_positions"`
	CooldownSeconds int     `yaml:"cooldown_seconds"`
	MarginUsagePct  float64 `yaml:"margin_usage_pct"` // share of available margin per entry
	MinTradeUSD     float64 `yaml:"min_trade_usd"`
}

// Profile holds the tunable parameters of one strategy instantiation. The
// repo's bot variants differ only in these numbers, so a single parameterized
// core replaces them all.
type Profile struct {
	Name                  string  `yaml:"name"`
	RSIPeriod             int     `yaml:"rsi_period"`
	RSIOversold           float64 `yaml:"rsi_oversold"`
	RSIOverbought         float64 `yaml:"rsi_overbought"`
	MomentumLookback      int     `yaml:"momentum_lookback"`
	VolatilityWindow      int     `yaml:"volatility_window"`
	VolatilityFloor       float64 `yaml:"volatility_floor"`
	WhaleMultiplier       float64 `yaml:"whale_multiplier"`
	RangeMargin           float64 `yaml:"range_margin"`
	DisplacementPct       float64 `yaml:"displacement_pct"`
	MinStrength           float64 `yaml:"min_strength"`
	Leverage              int     `yaml:"leverage"`
	TakeProfitPct         float64 `yaml:"take_profit_pct"`
	StopLossPct           float64 `yaml:"stop_loss_pct"`
	TrailingPct           float64 `yaml:"trailing_pct"`
	TrailingActivationPct float64 `yaml:"trailing_activation_pct"`
	ScanIntervalSeconds   int     `yaml:"scan_interval_seconds"`
	MaxEntriesPerScan     int     `yaml:"max_entries_per_scan"`
	CandleGranularity     string  `yaml:"candle_granularity"`
	CandleLimit           int     `yaml:"candle_limit"`
}

// Config collects every configuration leaf.
type Config struct {
	App         App                `yaml:"app"`
	Safety      Safety             `yaml:"safety"`
	Limits      Limits             `yaml:"limits"`
	Profile     Profile            `yaml:"profile"`
	Instruments []types.Instrument `yaml:"instruments"`
}

// Credentials are the WEEX API secrets, never stored in YAML.
type Credentials struct {
	APIKey     string
	SecretKey  string
	Passphrase string
}

// Load reads a YAML file from disk, hydrates a Config, and validates it.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	cfg := Default()
	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadCredentials pulls the API secrets from the environment, reading a .env
// file first when present. Missing credentials are a fatal configuration
// error: the process must not reach the strategy loop without them.
func LoadCredentials() (Credentials, error) {
	_ = godotenv.Load()
	c := Credentials{
		APIKey:     os.Getenv("WEEX_API_KEY"),
		SecretKey:  os.Getenv("WEEX_SECRET_KEY"),
		Passphrase: os.Getenv("WEEX_PASSPHRASE"),
	}
	if c.APIKey == "" || c.SecretKey == "" || c.Passphrase == "" {
		return Credentials{}, errors.New("missing WEEX_API_KEY, WEEX_SECRET_KEY or WEEX_PASSPHRASE")
	}
	return c, nil
}

// Default returns the aggressive-scalper baseline tuning.
func Default() *Config {
	return &Config{
		App: App{
			Name:        "weexbot",
			MetricsAddr: ":9109",
			LogLevel:    "info",
			JournalDir:  "journal",
		},
		Safety: Safety{
			FearGreedMin:  15,
			FearGreedMax:  85,
			MaxMarketMove: 8.0,
		},
		Limits: Limits{
			MaxDailyLoss:    100,
			MaxDailyTrades:  30,
			MinBalance:      10,
			MaxPositions:    4,
			CooldownSeconds: 60,
			MarginUsagePct:  95,
			MinTradeUSD:     1,
		},
		Profile: Profile{
			Name:                  "ultra",
			RSIPeriod:             14,
			RSIOversold:           30,
			RSIOverbought:         70,
			MomentumLookback:      3,
			VolatilityWindow:      10,
			VolatilityFloor:       0.3,
			WhaleMultiplier:       2.0,
			RangeMargin:           0.2,
			DisplacementPct:       8.0,
			MinStrength:           40,
			Leverage:              25,
			TakeProfitPct:         4.0,
			StopLossPct:           2.0,
			TrailingPct:           1.5,
			TrailingActivationPct: 1.0,
			ScanIntervalSeconds:   10,
			MaxEntriesPerScan:     2,
			CandleGranularity:     "1m",
			CandleLimit:           50,
		},
		Instruments: []types.Instrument{
			{Symbol: "cmt_solusdt", StepSize: 0.1, MinSize: 0.1},
			{Symbol: "cmt_ethusdt", StepSize: 0.01, MinSize: 0.01},
			{Symbol: "cmt_bnbusdt", StepSize: 0.1, MinSize: 0.1},
			{Symbol: "cmt_dogeusdt", StepSize: 100, MinSize: 100},
			{Symbol: "cmt_adausdt", StepSize: 10, MinSize: 10},
			{Symbol: "cmt_ltcusdt", StepSize: 0.1, MinSize: 0.1},
		},
	}
}

// Validate checks that all numeric fields are within sensible bounds. It
// returns the first encountered error so a configuration problem surfaces
// clearly before any trading starts.
func (c *Config) Validate() error {
	p := &c.Profile
	if p.RSIPeriod <= 0 {
		return errors.New("rsi_period must be positive")
	}
	if p.RSIOverbought <= p.RSIOversold {
		return fmt.Errorf("rsi_overbought (%v) must exceed rsi_oversold (%v)", p.RSIOverbought, p.RSIOversold)
	}
	if p.MomentumLookback <= 0 {
		return errors.New("momentum_lookback must be positive")
	}
	if p.VolatilityWindow <= 0 {
		return errors.New("volatility_window must be positive")
	}
	if p.WhaleMultiplier < 1 {
		return fmt.Errorf("whale_multiplier (%v) must be >= 1", p.WhaleMultiplier)
	}
	if p.RangeMargin < 0 || p.RangeMargin >= 0.5 {
		return fmt.Errorf("range_margin (%v) must be in [0, 0.5)", p.RangeMargin)
	}
	if p.MinStrength < 0 || p.MinStrength > 100 {
		return fmt.Errorf("min_strength (%v) must be in [0, 100]", p.MinStrength)
	}
	if p.Leverage <= 0 || p.Leverage > 125 {
		return fmt.Errorf("leverage (%d) must be in [1, 125]", p.Leverage)
	}
	if p.TakeProfitPct <= 0 {
		return errors.New("take_profit_pct must be positive")
	}
	if p.StopLossPct <= 0 {
		return errors.New("stop_loss_pct must be positive")
	}
	if p.TrailingPct < 0 {
		return errors.New("trailing_pct cannot be negative")
	}
	// A trailing stop that arms above take-profit can never fire: the static
	// TP closes the position first. Reject the profile outright.
	if p.TrailingPct > 0 && p.TrailingActivationPct > p.TakeProfitPct {
		return fmt.Errorf("trailing_activation_pct (%v) must not exceed take_profit_pct (%v)",
			p.TrailingActivationPct, p.TakeProfitPct)
	}
	if p.ScanIntervalSeconds <= 0 {
		return errors.New("scan_interval_seconds must be positive")
	}
	if p.MaxEntriesPerScan <= 0 {
		return errors.New("max_entries_per_scan must be positive")
	}
	if p.CandleLimit < p.RSIPeriod+1 {
		return fmt.Errorf("candle_limit (%d) too small for rsi_period (%d)", p.CandleLimit, p.RSIPeriod)
	}

	l := &c.Limits
	if l.MaxDailyLoss <= 0 {
		return errors.New("max_daily_loss must be positive")
	}
	if l.MaxDailyTrades <= 0 {
		return errors.New("max_daily_trades must be positive")
	}
	if l.MaxPositions <= 0 {
		return errors.New("max_positions must be positive")
	}
	if l.CooldownSeconds < 0 {
		return errors.New("cooldown_seconds cannot be negative")
	}
	if l.MarginUsagePct <= 0 || l.MarginUsagePct > 100 {
		return fmt.Errorf("margin_usage_pct (%v) must be in (0, 100]", l.MarginUsagePct)
	}

	if len(c.Instruments) == 0 {
		return errors.New("at least one instrument required")
	}
	for _, inst := range c.Instruments {
		if inst.Symbol == "" {
			return errors.New("instrument symbol cannot be empty")
		}
		if inst.StepSize <= 0 {
			return fmt.Errorf("instrument %s: step_size must be positive", inst.Symbol)
		}
		if inst.MinSize < 0 {
			return fmt.Errorf("instrument %s: min_size cannot be negative", inst.Symbol)
		}
	}
	return nil
}

// Instrument looks up an instrument by symbol.
func (c *Config) Instrument(symbol string) (types.Instrument, bool) {
	for _, inst := range c.Instruments {
		if inst.Symbol == symbol {
			return inst, true
		}
	}
	return types.Instrument{}, false
}
