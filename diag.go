package ntag424

// AuthSlotResult holds the outcome of one authentication attempt, for
// slot-discovery diagnostics.
type AuthSlotResult struct {
	Slot    byte
	Success bool
	Step    string
	SW      uint16
	RespLen int
	Err     error
}

// DiagnoseAuthSlots attempts AuthenticateEV2First with key against each
// slot in slots, recording where each attempt failed. Does not select the
// NDEF app between attempts — the caller selects it once beforehand.
func DiagnoseAuthSlots(card Card, key []byte, slots []byte) []AuthSlotResult {
	results := make([]AuthSlotResult, 0, len(slots))
	for _, slot := range slots {
		_, err := AuthenticateEV2First(card, key, slot)
		result := AuthSlotResult{Slot: slot, Success: err == nil, Err: err}
		if err != nil {
			if step, sw, respLen, ok := ClassifyAuthError(err); ok {
				result.Step = step
				result.SW = sw
				result.RespLen = respLen
			}
		}
		results = append(results, result)
	}
	return results
}
