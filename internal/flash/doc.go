// Package flash implements the FlashRegion collaborator the process-load
// driver scans: a production mmap-backed region over a flash image file,
// and an in-memory region for tests, sharing one walker that peeks each
// candidate container's declared total length without validating it --
// validation is internal/loader's job, via internal/container.Parse.
package flash
