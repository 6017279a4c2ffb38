// Command refhubctl lists and changes a tenant's reference data directly
// against the document store, bypassing the HTTP API.
package main

func main() {
	Execute()
}
