package model

type AuditQuery struct {
	Type    string
	ActorID string
	From    string
	To      string
	Page    int
	Limit   int
}
