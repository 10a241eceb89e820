package application

import "github.com/bnema/subaccount-pool/internal/domain"

type RecordQuery struct {
	PrimaryKey    string
	SubaccountKey string
}

func (q RecordQuery) Key() domain.RecordKey {
	return domain.RecordKey{PrimaryKey: q.PrimaryKey, APIKey: q.SubaccountKey}
}

// PoolSummary is the read model of one primary account's pool.
type PoolSummary struct {
	PrimaryKey string
	Index      domain.PoolIndex
	Free       int
	Leased     int
}

func NewPoolSummary(primaryKey string, index domain.PoolIndex) PoolSummary {
	free, leased := index.Counts()
	return PoolSummary{PrimaryKey: primaryKey, Index: index, Free: free, Leased: leased}
}
