package bank

import (
	"fmt"
	"unicode/utf8"

	"github.com/solsim/solsim/types"
)

// processMemoInstruction validates the memo payload and writes it to the
// transaction log. Serves both the v1 and v3 memo program ids.
func processMemoInstruction(ictx *instructionCtx) types.InstrErrCode {
	if !utf8.Valid(ictx.data) {
		ictx.log("Invalid UTF-8, from byte 0")
		return types.InstrErrInvalidInstructionData
	}
	ictx.log(fmt.Sprintf("Program log: Memo (len %d): %q", len(ictx.data), string(ictx.data)))
	return ""
}
