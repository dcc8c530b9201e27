package cqlgen

import "fmt"

// HistoryTable is the name of the keyspace-local migration ledger.
const HistoryTable = "migration_history"

// historyColumns are the ledger columns. All but description form the
// partition key, so concurrent writers for the same version never overwrite
// each other.
var historyColumns = []Field{
	{Name: "name", Type: "text"},
	{Name: "version", Type: "text"},
	{Name: "createdat", Type: "timestamp"},
	{Name: "description", Type: "text"},
}

// CreateHistoryTable renders the ledger table statement.
func CreateHistoryTable(table string) string {
	stmt, err := CreateTable(table, historyColumns, []string{"name", "version", "createdat"}, nil)
	if err != nil {
		panic(err)
	}
	return stmt
}

// InsertHistory renders the parameterized ledger insert.
func InsertHistory(table string) string {
	return fmt.Sprintf("INSERT INTO %s (name, version, createdat, description) VALUES (?, ?, ?, ?)", Ident(table))
}

// SelectHistory renders the full ledger scan.
func SelectHistory(table string) string {
	return fmt.Sprintf("SELECT name, version, createdat, description FROM %s", Ident(table))
}
