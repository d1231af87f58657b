package feature

// ApplyChurn labels every assembled row. A user is churned when they placed
// no order in the trailing 90 days and have not had a session in over 30
// days. The rule is stateless and consults nothing beyond the row itself.
func ApplyChurn(rows []Row) {
	for i := range rows {
		if rows[i].FrequencyLast90d == 0 && rows[i].DaysSinceLastSession > 30 {
			rows[i].Churn = 1
		} else {
			rows[i].Churn = 0
		}
	}
}
