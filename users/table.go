package users

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// Page is one slice of the user table
type Page struct {
	Users  []User
	Number int // 1-based page number actually served
	Size   int
	Total  int // users across all pages
	Pages  int
}

// HasPrev reports whether a previous page exists
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a following page exists
func (p Page) HasNext() bool { return p.Number < p.Pages }

// Paginate returns page number (1-based) of list. Out of range numbers are
// clamped to the first or last page; a non-positive size means 10.
func Paginate(list []User, number, size int) Page {
	if size <= 0 {
		size = 10
	}
	pages := (len(list) + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if number < 1 {
		number = 1
	}
	if number > pages {
		number = pages
	}

	start := (number - 1) * size
	end := min(start+size, len(list))
	return Page{
		Users:  list[start:end],
		Number: number,
		Size:   size,
		Total:  len(list),
		Pages:  pages,
	}
}

// FilterByLastLogin keeps users whose last login falls on a day within
// [from, to]. A zero bound is open; users that never logged in only pass
// when both bounds are open.
func FilterByLastLogin(list []User, from, to time.Time) []User {
	if from.IsZero() && to.IsZero() {
		return list
	}
	filtered := make([]User, 0, len(list))
	for _, u := range list {
		if u.LastLoginAt.IsZero() {
			continue
		}
		day := truncateDay(u.LastLoginAt.Time)
		if !from.IsZero() && day.Before(truncateDay(from)) {
			continue
		}
		if !to.IsZero() && day.After(truncateDay(to)) {
			continue
		}
		filtered = append(filtered, u)
	}
	return filtered
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

var csvHeader = []string{"email", "firstname", "lastname", "phone", "dateOfBirth", "lastLoginAt"}

// WriteCSV writes list as the user data export
func WriteCSV(w io.Writer, list []User) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("[WriteCSV] header: %w", err)
	}
	for _, u := range list {
		lastLogin := ""
		if !u.LastLoginAt.IsZero() {
			lastLogin = u.LastLoginAt.UTC().Format(time.RFC3339)
		}
		record := []string{u.Email, u.FirstName, u.LastName, u.Phone, u.DateOfBirth.Date(), lastLogin}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("[WriteCSV] %s: %w", u.Email, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
