package models

// DefaultYears are always selectable and cannot be removed
var DefaultYears = []int{2021, 2022, 2023, 2024, 2025}

// DefaultExamDate is one built-in exam sitting
type DefaultExamDate struct {
	Date  string
	Label string
}

// DefaultExamDates is the built-in exam calendar per year. Entries here
// are seeded at startup and cannot be deleted through the admin API.
var DefaultExamDates = map[int][]DefaultExamDate{
	2025: {
		{"2025-01-22", "January 22, 2025"},
		{"2025-01-24", "January 24, 2025"},
		{"2025-01-29", "January 29, 2025"},
		{"2025-01-31", "January 31, 2025"},
		{"2025-04-01", "April 1, 2025"},
		{"2025-04-04", "April 4, 2025"},
		{"2025-04-08", "April 8, 2025"},
		{"2025-04-12", "April 12, 2025"},
	},
	2024: {
		{"2024-01-27", "January 27, 2024"},
		{"2024-01-29", "January 29, 2024"},
		{"2024-01-31", "January 31, 2024"},
		{"2024-02-01", "February 1, 2024"},
		{"2024-04-04", "April 4, 2024"},
		{"2024-04-06", "April 6, 2024"},
		{"2024-04-08", "April 8, 2024"},
		{"2024-04-09", "April 9, 2024"},
		{"2024-04-15", "April 15, 2024"},
	},
	2023: {
		{"2023-01-24", "January 24, 2023"},
		{"2023-01-25", "January 25, 2023"},
		{"2023-01-29", "January 29, 2023"},
		{"2023-01-30", "January 30, 2023"},
		{"2023-01-31", "January 31, 2023"},
		{"2023-02-01", "February 1, 2023"},
		{"2023-04-06", "April 6, 2023"},
		{"2023-04-08", "April 8, 2023"},
		{"2023-04-10", "April 10, 2023"},
		{"2023-04-11", "April 11, 2023"},
		{"2023-04-13", "April 13, 2023"},
		{"2023-04-15", "April 15, 2023"},
	},
	2022: {
		{"2022-06-23", "June 23, 2022"},
		{"2022-06-24", "June 24, 2022"},
		{"2022-06-25", "June 25, 2022"},
		{"2022-06-26", "June 26, 2022"},
		{"2022-06-27", "June 27, 2022"},
		{"2022-06-28", "June 28, 2022"},
		{"2022-06-29", "June 29, 2022"},
		{"2022-07-21", "July 21, 2022"},
		{"2022-07-25", "July 25, 2022"},
		{"2022-07-28", "July 28, 2022"},
		{"2022-07-30", "July 30, 2022"},
	},
	2021: {
		{"2021-02-23", "February 23, 2021"},
		{"2021-02-24", "February 24, 2021"},
		{"2021-02-25", "February 25, 2021"},
		{"2021-02-26", "February 26, 2021"},
		{"2021-03-16", "March 16, 2021"},
		{"2021-03-17", "March 17, 2021"},
		{"2021-03-18", "March 18, 2021"},
		{"2021-07-20", "July 20, 2021"},
		{"2021-07-22", "July 22, 2021"},
		{"2021-07-25", "July 25, 2021"},
		{"2021-07-27", "July 27, 2021"},
		{"2021-08-26", "August 26, 2021"},
		{"2021-08-31", "August 31, 2021"},
		{"2021-09-02", "September 2, 2021"},
	},
}

// IsDefaultYear reports whether the year is built in
func IsDefaultYear(year int) bool {
	for _, y := range DefaultYears {
		if y == year {
			return true
		}
	}
	return false
}

// IsDefaultExamDate reports whether the date is part of the built-in calendar
func IsDefaultExamDate(year int, date string) bool {
	for _, d := range DefaultExamDates[year] {
		if d.Date == date {
			return true
		}
	}
	return false
}
