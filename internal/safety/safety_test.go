package safety

import (
	"strings"
	"testing"
)

func TestIsSafeAllowsReadQueries(t *testing.T) {
	queries := []string{
		"SELECT * FROM AllOrderReport",
		"select top 10 Store_Name, SUM(COD_Amount) from AllOrderReport group by Store_Name",
		"  SELECT COUNT(*) FROM tbl_OrderMasterHeader WHERE Order_Date >= '2024-01-01'  ",
		"WITH monthly AS (SELECT FORMAT(Order_Date,'yyyy-MM') AS Month, SUM(COD_Amount) AS Total FROM AllOrderReport GROUP BY FORMAT(Order_Date,'yyyy-MM')) SELECT * FROM monthly",
		// identifiers containing denylist words must not trip the filter
		"SELECT CreatedDateTime, LatestStatus FROM AllOrderReport",
		"SELECT Id FROM tbl_OrderMasterHeader WHERE Tracking_Number = 'DROPOFF123'",
	}
	for _, q := range queries {
		if !IsSafe(q) {
			t.Errorf("expected safe: %q", q)
		}
	}
}

func TestIsSafeRejectsUnsafeQueries(t *testing.T) {
	queries := []string{
		"",
		"   ",
		"DROP TABLE Orders",
		"DELETE FROM AllOrderReport",
		"INSERT INTO tbl_store VALUES (1)",
		"UPDATE tbl_store SET Status = 0",
		"TRUNCATE TABLE OrderReportCache",
		"EXEC xp_cmdshell 'dir'",
		"SELECT * FROM Orders; DROP TABLE Orders",
		"SELECT 1;",
		"select * from t where exists (select 1); --",
		"WITH x AS (SELECT 1 AS n) DELETE FROM tbl_store",
		"MERGE tbl_store AS t USING s ON t.Id = s.Id",
		"CREATE VIEW v AS SELECT 1 AS n",
		"ATTACH DATABASE 'x' AS y",
		"GRANT SELECT ON t TO u", // not a SELECT/WITH statement
		"sp_executesql N'SELECT 1'",
		"SELECT * FROM OPENROWSET WHERE 1=1 EXEC ('x')",
	}
	for _, q := range queries {
		if IsSafe(q) {
			t.Errorf("expected unsafe: %q", q)
		}
	}
}

// Any string containing a separator or not opening with SELECT/WITH must be
// rejected regardless of what else it contains.
func TestIsSafeStructuralProperties(t *testing.T) {
	prefixes := []string{"", "SELECT 1 FROM t", "WITH c AS (SELECT 1) SELECT * FROM c", "EXPLAIN SELECT 1", "VALUES (1)"}
	for _, p := range prefixes {
		withSep := p + " ; SELECT 2"
		if IsSafe(withSep) {
			t.Errorf("statement separator admitted: %q", withSep)
		}
	}
	for _, q := range []string{"EXPLAIN SELECT 1", "VALUES (1)", "SHOW TABLES"} {
		if IsSafe(q) {
			t.Errorf("non SELECT/WITH prefix admitted: %q", q)
		}
	}
}

func TestIsSafeIsIdempotentAndPure(t *testing.T) {
	inputs := []string{
		"SELECT * FROM AllOrderReport",
		"DROP TABLE Orders",
		"SELECT 1;",
		strings.Repeat("SELECT 1 UNION ALL ", 50) + "SELECT 1",
	}
	for _, q := range inputs {
		first := IsSafe(q)
		for i := 0; i < 10; i++ {
			if IsSafe(q) != first {
				t.Fatalf("IsSafe not idempotent for %q", q)
			}
		}
	}
}

func TestIsSafeCaseInsensitive(t *testing.T) {
	if IsSafe("dRoP TABLE x") {
		t.Fatal("lowercase drop admitted")
	}
	if !IsSafe("sElEcT 1") {
		t.Fatal("mixed-case select rejected")
	}
}
