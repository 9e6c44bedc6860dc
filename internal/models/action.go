package models

// Action captures a single inbound player move, already decoded from the
// transport layer. Payload keys depend on Kind: "rank" for play/choose
// guesses, "target" for target selections, "vote" for ballots, "index"
// for agenda selections.
type Action struct {
	Kind    string                 `json:"kind"`
	Payload map[string]interface{} `json:"payload"`
}

// PayloadInt extracts an integer payload field, tolerating the float64
// values JSON decoding produces.
func (a Action) PayloadInt(key string) (int, bool) {
	v, ok := a.Payload[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// PayloadString extracts a string payload field.
func (a Action) PayloadString(key string) (string, bool) {
	s, ok := a.Payload[key].(string)
	return s, ok
}
