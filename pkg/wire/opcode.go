package wire

// Opcode identifies the operation a frame carries.
type Opcode uint8

const (
	// OpList requests the callee's named-export directory.
	OpList Opcode = 0x01

	// OpResolve resolves a public name to a reference.
	OpResolve Opcode = 0x02

	// OpGetAttr reads an attribute of a referenced object.
	OpGetAttr Opcode = 0x03

	// OpSetAttr writes an attribute of a referenced object.
	OpSetAttr Opcode = 0x04

	// OpDelAttr deletes an attribute of a referenced object.
	OpDelAttr Opcode = 0x05

	// OpGetItem reads an indexed element of a referenced object.
	OpGetItem Opcode = 0x06

	// OpSetItem writes an indexed element of a referenced object.
	OpSetItem Opcode = 0x07

	// OpDelItem deletes an indexed element of a referenced object.
	OpDelItem Opcode = 0x08

	// OpLen queries the length of a referenced object.
	OpLen Opcode = 0x09

	// OpStr requests the short textual conversion of a referenced object.
	OpStr Opcode = 0x0A

	// OpRepr requests the diagnostic textual conversion of a referenced object.
	OpRepr Opcode = 0x0B

	// OpCall invokes a referenced object.
	OpCall Opcode = 0x0C

	// OpRelease tells the callee an import was dropped. No reply is sent.
	OpRelease Opcode = 0x0D

	// OpHello exchanges protocol versions on first contact.
	OpHello Opcode = 0x0E

	// OpReplyOK carries a successful result back to the initiator.
	OpReplyOK Opcode = 0x70

	// OpReplyErr carries an error kind and message back to the initiator.
	OpReplyErr Opcode = 0x71
)

// String returns the opcode name.
func (o Opcode) String() string {
	switch o {
	case OpList:
		return "LIST"
	case OpResolve:
		return "RESOLVE"
	case OpGetAttr:
		return "GETATTR"
	case OpSetAttr:
		return "SETATTR"
	case OpDelAttr:
		return "DELATTR"
	case OpGetItem:
		return "GETITEM"
	case OpSetItem:
		return "SETITEM"
	case OpDelItem:
		return "DELITEM"
	case OpLen:
		return "LEN"
	case OpStr:
		return "STR"
	case OpRepr:
		return "REPR"
	case OpCall:
		return "CALL"
	case OpRelease:
		return "RELEASE"
	case OpHello:
		return "HELLO"
	case OpReplyOK:
		return "REPLY_OK"
	case OpReplyErr:
		return "REPLY_ERR"
	default:
		return "UNKNOWN"
	}
}

// IsValid reports whether the opcode is wire-legal.
func (o Opcode) IsValid() bool {
	return (o >= OpList && o <= OpHello) || o == OpReplyOK || o == OpReplyErr
}

// IsReply reports whether the opcode is a reply opcode.
func (o Opcode) IsReply() bool {
	return o == OpReplyOK || o == OpReplyErr
}

// ExpectsReply reports whether a request with this opcode blocks for a reply.
// RELEASE is fire-and-forget.
func (o Opcode) ExpectsReply() bool {
	return !o.IsReply() && o != OpRelease
}
