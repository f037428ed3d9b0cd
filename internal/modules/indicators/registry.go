package indicators

// definition registers one named indicator.
type definition struct {
	fields   field
	defaults Params
	build    func(Params) step
}

var (
	periodOnly = fieldPeriod
	macdFields = fieldFast | fieldSlow | fieldSignal
	stochField = fieldPeriod | fieldSmoothing
	bandFields = fieldPeriod | fieldMultiplier

	macdDefaults  = Params{Fast: 12, Slow: 26, Signal: 9}
	stochDefaults = Params{Period: 14, Smoothing: 3}
	bandDefaults  = Params{Period: 20, Multiplier: 2}
)

// registry is the indicator catalogue. Names are upper-case.
var registry = map[string]definition{
	// Trend
	"SMA":          {periodOnly, Params{Period: 20}, newSMA},
	"EMA":          {periodOnly, Params{Period: 20}, newEMA},
	"WMA":          {periodOnly, Params{Period: 20}, newWMA},
	"DEMA":         {periodOnly, Params{Period: 20}, newDEMA},
	"EMA_DISTANCE": {periodOnly, Params{Period: 200}, newEMADistance},
	"MACD":         {macdFields, macdDefaults, newMACD},
	"MACD_SIGNAL":  {macdFields, macdDefaults, newMACDSignal},
	"MACD_HIST":    {macdFields, macdDefaults, newMACDHist},
	"ADX":          {periodOnly, Params{Period: 14}, newADX},
	"PLUS_DI":      {periodOnly, Params{Period: 14}, newPlusDI},
	"MINUS_DI":     {periodOnly, Params{Period: 14}, newMinusDI},

	// Momentum
	"RSI":     {periodOnly, Params{Period: 14}, newRSI},
	"STOCH_K": {stochField, stochDefaults, newStochK},
	"STOCH_D": {stochField, stochDefaults, newStochD},
	"WILLR":   {periodOnly, Params{Period: 14}, newWilliamsR},
	"ROC":     {periodOnly, Params{Period: 10}, newROC},
	"MOM":     {periodOnly, Params{Period: 10}, newMomentum},
	"CCI":     {periodOnly, Params{Period: 20}, newCCI},

	// Volatility
	"BB_UPPER":     {bandFields, bandDefaults, newBBUpper},
	"BB_MIDDLE":    {bandFields, bandDefaults, newBBMiddle},
	"BB_LOWER":     {bandFields, bandDefaults, newBBLower},
	"BB_PERCENT_B": {bandFields, bandDefaults, newBBPercentB},
	"BB_BANDWIDTH": {bandFields, bandDefaults, newBBBandwidth},
	"STDDEV":       {periodOnly, Params{Period: 20}, newStdDev},
	"ATR":          {periodOnly, Params{Period: 14}, newATR},
	"NATR":         {periodOnly, Params{Period: 14}, newNATR},
	"TRANGE":       {0, Params{}, newTrueRange},

	// Volume
	"OBV":  {0, Params{}, newOBV},
	"VWAP": {fieldSession, Params{}, newVWAP},
	"MFI":  {periodOnly, Params{Period: 14}, newMFI},

	// Range
	"RANGE_POSITION": {periodOnly, Params{Period: 252}, newRangePosition},
	"DRAWDOWN":       {periodOnly, Params{Period: 252}, newDrawdown},
}
