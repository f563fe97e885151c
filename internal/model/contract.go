package model

// ContractType selects the classifier used for a contract's invocations.
type ContractType string

const (
	ContractTypePair    ContractType = "pair"
	ContractTypeToken   ContractType = "token"
	ContractTypeLP      ContractType = "lp_token"
	ContractTypeStaking ContractType = "staking"
	ContractTypeGov     ContractType = "gov"
	ContractTypeAirdrop ContractType = "airdrop"
)

// Contract is a known contract that invocations can be attributed to.
type Contract struct {
	ID      int64        `json:"id"`
	Address string       `json:"address"`
	Type    ContractType `json:"type"`
	Token   string       `json:"token,omitempty"`
	GovID   int64        `json:"gov_id,omitempty"`
}

func (t ContractType) Valid() bool {
	switch t {
	case ContractTypePair, ContractTypeToken, ContractTypeLP, ContractTypeStaking, ContractTypeGov, ContractTypeAirdrop:
		return true
	default:
		return false
	}
}
