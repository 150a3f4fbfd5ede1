package audithook

// Action constants for audit events.
const (
	// Configuration actions
	ActionVaultInitialized = "vault.initialized"
	ActionAdminRotated     = "admin.rotated"
	ActionMinTopupUpdated  = "config.min_topup_updated"

	// Subscription actions
	ActionSubscriptionCreated   = "subscription.created"
	ActionSubscriptionDeposited = "subscription.deposited"
	ActionSubscriptionPaused    = "subscription.paused"
	ActionSubscriptionResumed   = "subscription.resumed"
	ActionSubscriptionCancelled = "subscription.cancelled"
	ActionBalanceExhausted      = "subscription.insufficient_balance"

	// Charge actions
	ActionIntervalCharged = "charge.interval"
	ActionUsageCharged    = "charge.usage"
	ActionOneOffCharged   = "charge.one_off"
	ActionChargeFailed    = "charge.failed"
	ActionBatchCharged    = "batch.charged"

	// Funds actions
	ActionMerchantWithdrawn = "merchant.withdrawn"
	ActionFundsRecovered    = "funds.recovered"
)

// Resource constants for audit events.
const (
	ResourceConfig       = "config"
	ResourceSubscription = "subscription"
	ResourceCharge       = "charge"
	ResourceBatch        = "batch"
	ResourceWithdrawal   = "withdrawal"
	ResourceRecovery     = "recovery"
)

// Category constants for audit events.
const (
	CategoryAdmin        = "admin"
	CategorySubscription = "subscription"
	CategoryBilling      = "billing"
	CategoryFunds        = "funds"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
