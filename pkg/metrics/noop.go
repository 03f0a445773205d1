package metrics

// Nop is a metrics recorder that discards everything. Intended for tests,
// where promauto's global registration would collide across cases.
type Nop struct{}

func (Nop) RecordMessageSent(backend, ticker string) {}
func (Nop) RecordError(kind string)                  {}
func (Nop) RecordAlert(level string)                 {}
func (Nop) RecordCacheLookup(cache string, hit bool) {}
func (Nop) RecordScore(ticker string, score float64) {}
func (Nop) RecordLatency(op string, seconds float64) {}
