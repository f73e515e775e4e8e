package telemetry

// Message is the self-describing wire record published for every changed
// value. Timestamp is Unix epoch milliseconds. UDTTemplate is present only
// for the structured strategy.
type Message struct {
	ModuleID    string   `json:"moduleId"`
	DeviceID    string   `json:"deviceId"`
	VariableID  string   `json:"variableId"`
	Value       any      `json:"value"`
	Timestamp   int64    `json:"timestamp"`
	Datatype    Datatype `json:"datatype"`
	Description string   `json:"description"`
	UDTTemplate string   `json:"udtTemplate,omitempty"`
}
