// Package promo holds the closed promotion-code catalog. Codes are issued
// off-system in printed batches; the table is configuration data, not
// runtime state.
package promo

import "strings"

var codes = map[string]int64{
	// Owner private code
	"BOSS-ULTRA-MAGIC-9999": 9999,

	// Starter Bundle batch (150 credits)
	"ST150-R9P2-W4X7": 150, "ST150-L3K8-M1V6": 150, "ST150-N5J2-Z9Q4": 150, "ST150-G8B1-T6Y3": 150, "ST150-H4F7-K9D2": 150,
	"ST150-X1V5-N8M3": 150, "ST150-C2B9-Q7W4": 150, "ST150-H6K8-R2S5": 150, "ST150-L9P4-V3T1": 150, "ST150-M7N2-X8Z6": 150,
	"ST150-K4J1-G9F3": 150, "ST150-S3D7-A6W2": 150, "ST150-U8I4-O2P9": 150, "ST150-Y5T1-R8E4": 150, "ST150-Z9X3-V2B7": 150,
	"ST150-W6Q8-L1K4": 150, "ST150-N4M2-P7O3": 150, "ST150-G1H9-J3F6": 150, "ST150-B8V4-C2X9": 150, "ST150-R5S1-D8A3": 150,

	// Business Pro batch (500 credits)
	"BP500-K9L2-M4N7": 500, "BP500-X7C3-V1B8": 500, "BP500-Z5A9-Q2W4": 500, "BP500-P8O1-I6U3": 500, "BP500-J4H7-G9F2": 500,
	"BP500-D3S6-A1W8": 500, "BP500-R5V9-X2L4": 500, "BP500-T7Y1-U8I4": 500, "BP500-M3N6-B9V2": 500, "BP500-F8D4-S2A9": 500,
	"BP500-G1H6-J7K3": 500, "BP500-L4P9-V2T1": 500, "BP500-Q8W4-E3R7": 500, "BP500-Z2X9-C6B4": 500, "BP500-N7M1-K8P3": 500,
	"BP500-S5D2-A9F4": 500, "BP500-H1J8-K3L6": 500, "BP500-O7P2-I9U4": 500, "BP500-W3E8-R1T6": 500, "BP500-V5B2-C9X4": 500,

	// Agency Master batch (1200 credits)
	"AM1200-TX91-KL44": 1200, "AM1200-RV58-XM29": 1200, "AM1200-QW73-PL12": 1200, "AM1200-BN84-VK90": 1200, "AM1200-GH56-TY32": 1200,
	"AM1200-IU29-RE81": 1200, "AM1200-LK17-JH39": 1200, "AM1200-PO92-OI81": 1200, "AM1200-MN48-BV22": 1200, "AM1200-CX31-ZA19": 1200,
	"AM1200-DS59-EW21": 1200, "AM1200-HG62-KJ49": 1200, "AM1200-YT37-RE12": 1200, "AM1200-IU81-PL59": 1200, "AM1200-NB27-VC11": 1200,
	"AM1200-GR49-FD32": 1200, "AM1200-WQ19-AZ92": 1200, "AM1200-MJ71-NH69": 1200, "AM1200-KI92-LO81": 1200, "AM1200-ZA29-XS12": 1200,

	// Legacy codes
	"MAGIC150": 150, "PRO500": 500, "MASTER1200": 1200, "LUCKY777": 777,
}

// Normalize canonicalizes user input before lookup.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Lookup resolves a (raw, un-normalized) code to its credit amount.
func Lookup(code string) (int64, bool) {
	amount, ok := codes[Normalize(code)]
	return amount, ok
}

// Count returns the number of codes in the catalog.
func Count() int {
	return len(codes)
}
