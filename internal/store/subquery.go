package store

// expenseTotalsSubquery returns the grouped aggregate of net expense amounts
// per legislator for the reference year bound at yearPlaceholder. Callers
// choose how to join it: LEFT JOIN keeps legislators without expenses (use
// COALESCE on total_expenses), INNER JOIN drops them.
func expenseTotalsSubquery(yearPlaceholder string) string {
	return `
		SELECT legislator_id, SUM(net_amount) AS total_expenses
		FROM expenses
		WHERE year = ` + yearPlaceholder + `
		GROUP BY legislator_id`
}
