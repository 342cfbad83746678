package expense

// FilterByCategory keeps the records in selected, preserving order.
// AllCategories returns records itself.
func FilterByCategory(records []Record, selected Category) []Record {
	if selected == AllCategories {
		return records
	}

	out := make([]Record, 0, len(records))

	for _, r := range records {
		if r.Category == selected {
			out = append(out, r)
		}
	}

	return out
}
