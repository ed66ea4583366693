package validation

// Level is the severity of a validation result. There are exactly two:
// a BLOCK stops the operation unconditionally, a WARNING lets it proceed
// only after the caller acknowledges it.
type Level string

const (
	LevelBlock   Level = "BLOCK"
	LevelWarning Level = "WARNING"
)

// Result is one rule outcome. RuleID is a stable identifier ("C4", "E3", ...)
// used in messages and tests. Message is English, MessageVi the Vietnamese
// text shown to plant operators. Details carries the structured payload the
// UI renders (remainders, counts, conflicting ids). A Result is never
// modified after construction.
type Result struct {
	RuleID    string                 `json:"rule_id" example:"C4"`
	Level     Level                  `json:"level" example:"BLOCK"`
	Message   string                 `json:"message" example:"Product has more than one active BOM"`
	MessageVi string                 `json:"message_vi" example:"San pham co nhieu hon mot BOM dang hoat dong"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Results is an ordered collection of rule outcomes. Order is the rule
// evaluation order and is deterministic for a given snapshot.
type Results []Result

// Block builds a BLOCK result.
func Block(ruleID, message, messageVi string, details map[string]interface{}) Result {
	return Result{RuleID: ruleID, Level: LevelBlock, Message: message, MessageVi: messageVi, Details: details}
}

// Warning builds a WARNING result.
func Warning(ruleID, message, messageVi string, details map[string]interface{}) Result {
	return Result{RuleID: ruleID, Level: LevelWarning, Message: message, MessageVi: messageVi, Details: details}
}

// Blocks returns the BLOCK subset in evaluation order.
func (r Results) Blocks() Results {
	var out Results
	for _, v := range r {
		if v.Level == LevelBlock {
			out = append(out, v)
		}
	}
	return out
}

// Warnings returns the WARNING subset in evaluation order.
func (r Results) Warnings() Results {
	var out Results
	for _, v := range r {
		if v.Level == LevelWarning {
			out = append(out, v)
		}
	}
	return out
}

func (r Results) HasBlocks() bool {
	for _, v := range r {
		if v.Level == LevelBlock {
			return true
		}
	}
	return false
}

func (r Results) HasWarnings() bool {
	for _, v := range r {
		if v.Level == LevelWarning {
			return true
		}
	}
	return false
}

// IsValid is true exactly when there are no blocks. Warnings never make a
// snapshot invalid.
func (r Results) IsValid() bool {
	return !r.HasBlocks()
}

// RuleIDs lists the rule ids in evaluation order, mostly for logging and
// tests.
func (r Results) RuleIDs() []string {
	ids := make([]string, 0, len(r))
	for _, v := range r {
		ids = append(ids, v.RuleID)
	}
	return ids
}
