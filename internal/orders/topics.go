package orders

import "strconv"

const TopicOrderCreated = "orders.created"

// Partition key = order id, so every event of one order keeps its order.
func PartitionKey(orderID int64) []byte {
	return []byte(strconv.FormatInt(orderID, 10))
}
