// Package catalog describes the sale packages shown on the top-up page.
// Payments are manual (bank transfer + slip upload); a package here is
// informational and maps to the credit amount its promo/slip grants.
package catalog

import "github.com/luckystation-cmd/ADS-MAGIC-2.0/app/models"

type ServicePackage struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Credits     int64  `json:"credits"`
	Recommended bool   `json:"recommended"`
}

var packages = []ServicePackage{
	{
		ID:          models.TIER_STARTER,
		Title:       "Starter Bundle",
		Description: "ลดราคาพิเศษ! เหมาะสำหรับการเริ่มต้นทำแบรนด์",
		Price:       "199.-",
		Credits:     150,
	},
	{
		ID:          models.TIER_BUSINESS,
		Title:       "Business Pro",
		Description: "แพ็กเกจสุดคุ้มยอดนิยม สำหรับพ่อค้าแม่ค้าออนไลน์",
		Price:       "450.-",
		Credits:     500,
		Recommended: true,
	},
	{
		ID:          models.TIER_AGENCY,
		Title:       "Agency Master",
		Description: "สำหรับเอเจนซี่และมืออาชีพ งานโฆษณาเต็มรูปแบบ",
		Price:       "990.-",
		Credits:     1200,
	},
}

// All returns the purchasable packages in display order.
func All() []ServicePackage {
	out := make([]ServicePackage, len(packages))
	copy(out, packages)
	return out
}

// ByID resolves a package id to its definition.
func ByID(id string) (ServicePackage, bool) {
	for _, p := range packages {
		if p.ID == id {
			return p, true
		}
	}
	return ServicePackage{}, false
}
