package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldIdentity   = "identity"
	FieldGroup      = "group"
	FieldQuantity   = "quantity"
	FieldPeriod     = "period"
	FieldDate       = "date"
	FieldSheet      = "sheet"
	FieldExportRef  = "export_ref"
	FieldMessageID  = "message_id"
	FieldQueue      = "queue"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp    = "app"
	ComponentTally  = "tally"
	ComponentHTTP   = "http"
	ComponentAMQP   = "amqp"
	ComponentBridge = "bridge"
	ComponentExport = "export"
	ComponentLookup = "lookup"
	ComponentConfig = "config"
)

// Operations defines standard operation names
const (
	OpRecord    = "record"
	OpReport    = "report"
	OpExport    = "export"
	OpReconcile = "reconcile"
	OpParse     = "parse"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithEntry adds the fields of one recorded entry
func (f LogFields) WithEntry(identity, group string, quantity int64) LogFields {
	f[FieldIdentity] = identity
	f[FieldGroup] = group
	f[FieldQuantity] = quantity
	return f
}

// WithPeriod adds the period field
func (f LogFields) WithPeriod(period string) LogFields {
	f[FieldPeriod] = period
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
