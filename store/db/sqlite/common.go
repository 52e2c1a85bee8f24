package sqlite

import "strings"

// placeholder returns the positional placeholder SQLite understands. The
// argument mirrors the PostgreSQL driver's signature so query-building code
// stays symmetric between the two.
func placeholder(int) string {
	return "?"
}

// placeholders returns n placeholders joined by commas.
func placeholders(n int) string {
	list := []string{}
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}
