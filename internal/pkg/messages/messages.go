// Package messages holds the user-facing strings of the product. The
// product speaks Thai to its users; machine-readable error codes stay
// English and live with the handlers.
package messages

import "fmt"

func RedeemSuccess(amount int64) string {
	return fmt.Sprintf("เติมเครดิตสำเร็จ +%d ✨", amount)
}

func RedeemInvalidCode() string {
	return "รหัสไม่ถูกต้อง หรือถูกใช้งานไปแล้ว"
}

func RedeemCodeAlreadyUsed() string {
	return "รหัสนี้ถูกใช้งานไปแล้ว"
}

func SlipVerified(amount int64) string {
	return fmt.Sprintf("ยืนยันยอดเงินสำเร็จ! เพิ่ม +%d เครดิตแล้ว ✨", amount)
}

func SlipMissing() string {
	return "ไม่พบไฟล์สลิป"
}

func SlipAlreadyUsed() string {
	return "สลิปนี้เคยถูกใช้งานไปแล้ว"
}

func InsufficientCredits() string {
	return "เครดิตไม่เพียงพอ กรุณาเติมเครดิตก่อนใช้งาน"
}

func GenerationFailed() string {
	return "ระบบขัดข้องชั่วคราว กรุณาลองใหม่อีกครั้ง"
}

func StorageUnavailable() string {
	return "ไม่สามารถบันทึกข้อมูลได้ กรุณาลองใหม่อีกครั้ง"
}
