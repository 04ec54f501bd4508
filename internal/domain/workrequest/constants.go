package workrequest

const (
	TypeLeave    = "LEAVE"
	TypeWFH      = "WFH"
	TypeLate     = "LATE"
	TypeEarly    = "EARLY"
	TypeOvertime = "OVERTIME"

	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

var Types = []string{TypeLeave, TypeWFH, TypeLate, TypeEarly, TypeOvertime}

func ValidType(t string) bool {
	for _, known := range Types {
		if known == t {
			return true
		}
	}
	return false
}

func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}
