package domain

// Role classifies every account in the directory.
type Role string

const (
	RoleHolder Role = "HOLDER"
	RoleAgent  Role = "AGENT"
	RoleAdmin  Role = "ADMIN"
)

// ActiveStatus is the user-level activation state, distinct from the
// wallet-level block flag.
type ActiveStatus string

const (
	UserActive   ActiveStatus = "ACTIVE"
	UserInactive ActiveStatus = "INACTIVE"
	UserBlocked  ActiveStatus = "BLOCKED"
)

// AgentStatus tracks agent approval. Meaningful only when Role is AGENT;
// everyone else stays NOT_AGENT.
type AgentStatus string

const (
	AgentNotAgent  AgentStatus = "NOT_AGENT"
	AgentPending   AgentStatus = "PENDING"
	AgentApproved  AgentStatus = "APPROVED"
	AgentSuspended AgentStatus = "SUSPENDED"
)

// WalletStatus is the administrative block flag on a wallet.
type WalletStatus string

const (
	WalletBlocked   WalletStatus = "BLOCKED"
	WalletUnblocked WalletStatus = "UNBLOCKED"
)

// EntryType is the movement type recorded on a ledger entry.
type EntryType string

const (
	EntryAddMoney  EntryType = "ADD_MONEY"
	EntrySendMoney EntryType = "SEND_MONEY"
	EntryCashIn    EntryType = "CASH_IN"
	EntryCashOut   EntryType = "CASH_OUT"
	EntryWithdraw  EntryType = "WITHDRAW"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleHolder, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// ValidWalletStatus reports whether s is a known wallet status.
func ValidWalletStatus(s WalletStatus) bool {
	return s == WalletBlocked || s == WalletUnblocked
}

// ValidAgentStatus reports whether s is a status an admin may assign.
func ValidAgentStatus(s AgentStatus) bool {
	return s == AgentApproved || s == AgentSuspended
}

// ValidActiveStatus reports whether s is a known activation state.
func ValidActiveStatus(s ActiveStatus) bool {
	switch s {
	case UserActive, UserInactive, UserBlocked:
		return true
	}
	return false
}
