//go:build !race

package autorag

// passwordHashCost matches what the accounts table was seeded with. Raising
// it only affects newly hashed passwords.
func passwordHashCost() int {
	return 10
}
