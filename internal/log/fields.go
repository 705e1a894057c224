package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldOwnerID        = "owner_id"
	FieldSubscriptionID = "subscription_id"
	FieldSubName        = "subscription_name"
	FieldCostCents      = "cost_cents"
	FieldBillingCycle   = "billing_cycle"
	FieldCategory       = "category"
	FieldRecipient      = "recipient"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentBilling   = "billing"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentScheduler = "scheduler"
	ComponentMail      = "mail"
	ComponentCache     = "cache"
	ComponentAuth      = "auth"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpMarkPaid = "mark_paid"
	OpSummary  = "summary"
	OpNotify   = "notify"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
