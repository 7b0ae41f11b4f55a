// Command tracker serves the match-history dashboard and runs its
// maintenance jobs.
package main

func main() {
	Execute()
}
