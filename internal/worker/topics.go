package worker

// Bus topics. Each has exactly one subscriber, registered at bootstrap.
const (
	// TopicBalance serves balance read requests.
	TopicBalance = "balance.request"

	// TopicTransactions serves transaction list read requests.
	TopicTransactions = "transactions.request"

	// TopicTransfer serves money transfer initiations.
	TopicTransfer = "transfer.request"

	// TopicPersistence receives fire-and-forget transaction persistence
	// batches after a transactions read has replied.
	TopicPersistence = "transactions.persistence"
)
