package domain

import "fmt"

// OpCode is the 32-bit operation selector at the head of every protocol body
type OpCode uint32

const (
	OpTransfer              OpCode = 0x5fcc3d14
	OpExcesses              OpCode = 0xd53276db
	OpGetStaticData         OpCode = 0x2fcb26a2
	OpReportStaticData      OpCode = 0x8b771735
	OpProveOwnership        OpCode = 0x04ded148
	OpOwnershipProof        OpCode = 0x0524c7ae
	OpOwnershipProofBounced OpCode = 0xc18e86d2
	OpRequestOwner          OpCode = 0xd0c3bfea
	OpOwnerInfo             OpCode = 0x0dd607e3
	OpDestroy               OpCode = 0x1f04537a
	OpRevoke                OpCode = 0x6f89f5e3
	OpTakeExcess            OpCode = 0xd136d3b3

	// OpMintSBT asks a collection to deploy one item
	OpMintSBT OpCode = 1
	// OpChangeOwner hands a collection to a new owner
	OpChangeOwner OpCode = 3
)

var opNames = map[OpCode]string{
	OpTransfer:              "transfer",
	OpExcesses:              "excesses",
	OpGetStaticData:         "get_static_data",
	OpReportStaticData:      "report_static_data",
	OpProveOwnership:        "prove_ownership",
	OpOwnershipProof:        "ownership_proof",
	OpOwnershipProofBounced: "ownership_proof_bounced",
	OpRequestOwner:          "request_owner",
	OpOwnerInfo:             "owner_info",
	OpDestroy:               "destroy",
	OpRevoke:                "revoke",
	OpTakeExcess:            "take_excess",
	OpMintSBT:               "mint_sbt",
	OpChangeOwner:           "change_owner",
}

// String returns the snake_case operation name, or the hex code when unknown
func (o OpCode) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("0x%08x", uint32(o))
}

// Known reports whether the code is part of the protocol
func (o OpCode) Known() bool {
	_, ok := opNames[o]
	return ok
}
