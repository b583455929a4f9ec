package domain

const (
	// NanoPerCoin is the number of nano units in one coin
	NanoPerCoin = 1_000_000_000

	// DEFAULT_STORAGE_RESERVE is kept on an item when destroy or take-excess drains it (0.05 coin)
	DEFAULT_STORAGE_RESERVE Coins = 50_000_000

	// BASECHAIN is the workchain items are deployed to
	BASECHAIN int8 = 0

	// BOUNCED_PREFIX marks the body of a bounced message
	BOUNCED_PREFIX uint32 = 0xffffffff

	// BOUNCED_BODY_BITS is how much of the original body a bounce carries
	BOUNCED_BODY_BITS = 256
)
