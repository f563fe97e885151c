package model

// TxType classifies a recorded transaction.
type TxType string

const (
	TxTypeBuy     TxType = "BUY"
	TxTypeSell    TxType = "SELL"
	TxTypeSend    TxType = "SEND"
	TxTypeReceive TxType = "RECEIVE"

	TxTypeOpenPosition       TxType = "OPEN_POSITION"
	TxTypeDepositCollateral  TxType = "DEPOSIT_COLLATERAL"
	TxTypeWithdrawCollateral TxType = "WITHDRAW_COLLATERAL"
	TxTypeMint               TxType = "MINT"
	TxTypeBurn               TxType = "BURN"
	TxTypeAuction            TxType = "AUCTION"

	TxTypeProvideLiquidity  TxType = "PROVIDE_LIQUIDITY"
	TxTypeWithdrawLiquidity TxType = "WITHDRAW_LIQUIDITY"
	TxTypeStake             TxType = "STAKE"
	TxTypeUnstake           TxType = "UNSTAKE"
	TxTypeGovStake          TxType = "GOV_STAKE"
	TxTypeGovUnstake        TxType = "GOV_UNSTAKE"
	TxTypeGovCreatePoll     TxType = "GOV_CREATE_POLL"
	TxTypeGovEndPoll        TxType = "GOV_END_POLL"
	TxTypeWithdrawRewards   TxType = "WITHDRAW_REWARDS"

	TxTypeTerraSwap    TxType = "TERRA_SWAP"
	TxTypeTerraSend    TxType = "TERRA_SEND"
	TxTypeTerraReceive TxType = "TERRA_RECEIVE"
)

// Network identifies the chain a distribution record belongs to.
type Network string

const (
	NetworkTerra   Network = "TERRA"
	NetworkEth     Network = "ETH"
	NetworkBSC     Network = "BSC"
	NetworkCombine Network = "COMBINE"
)
