package orders

type Status string

const (
	StatusNew        Status = "new"
	StatusProcessing Status = "processing"
	StatusFulfilled  Status = "fulfilled"
	StatusCancelled  Status = "cancelled"
)

var validNext = map[Status]map[Status]bool{
	StatusNew:        {StatusProcessing: true, StatusCancelled: true},
	StatusProcessing: {StatusFulfilled: true, StatusCancelled: true},
	StatusFulfilled:  {},
	StatusCancelled:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
