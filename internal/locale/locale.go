// Package locale holds every user-visible string of the chat widget and the
// admin panel. Thai is the primary language; English is the fallback.
package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Key identifies a localized message.
type Key string

const (
	Greeting         Key = "chat.greeting"
	Typing           Key = "chat.typing"
	Send             Key = "chat.send"
	InputPlaceholder Key = "chat.input_placeholder"
	NoReply          Key = "chat.no_reply"
	HTTPError        Key = "chat.http_error"
	HTTPErrorStatus  Key = "chat.http_error_status"
	NetworkError     Key = "chat.network_error"
	Timeout          Key = "chat.timeout"

	FAQTitle      Key = "faq.title"
	FAQSearch     Key = "faq.search"
	FAQLoading    Key = "faq.loading"
	FAQEmpty      Key = "faq.empty"
	FAQLoadFailed Key = "faq.load_failed"
	FAQAsk        Key = "faq.ask"

	AdminPasswordRequired Key = "admin.password_required"
	AdminLoginOK          Key = "admin.login_ok"
	AdminLoginFailed      Key = "admin.login_failed"
	AdminNoToken          Key = "admin.no_token"
	AdminNonJSON          Key = "admin.non_json"
	AdminNoAPIBase        Key = "admin.no_api_base"
	AdminLoading          Key = "admin.loading"
	AdminLoaded           Key = "admin.loaded"
	AdminLoadFailed       Key = "admin.load_failed"
	AdminSaving           Key = "admin.saving"
	AdminSaved            Key = "admin.saved"
	AdminSaveFailed       Key = "admin.save_failed"
	AdminInvalidJSON      Key = "admin.invalid_json"
	AdminLoggedOut        Key = "admin.logged_out"
	AdminSessionExpired   Key = "admin.session_expired"
	AdminAdded            Key = "admin.added"
	AdminUpdated          Key = "admin.updated"
	AdminDeleted          Key = "admin.deleted"
	AdminFieldsRequired   Key = "admin.fields_required"
	AdminEdit             Key = "admin.edit"
	AdminDelete           Key = "admin.delete"
	AdminNetworkError     Key = "admin.network_error"
)

var messages = map[Key][2]string{
	// key: {thai, english}
	Greeting:         {"สวัสดีค่ะ มีอะไรให้ช่วยไหมคะ?", "Hi! How can I help you?"},
	Typing:           {"กำลังพิมพ์...", "Typing..."},
	Send:             {"ส่ง", "Send"},
	InputPlaceholder: {"พิมพ์ข้อความ...", "Type a message..."},
	NoReply:          {"ขออภัย ระบบขัดข้องชั่วคราว", "Sorry, the assistant is unable to respond right now."},
	HTTPError:        {"ขออภัย เกิดข้อผิดพลาด: %s", "Sorry, something went wrong: %s"},
	HTTPErrorStatus:  {"ขออภัย เซิร์ฟเวอร์ตอบกลับผิดพลาด (HTTP %d)", "Sorry, the server returned an error (HTTP %d)."},
	NetworkError:     {"เกิดข้อผิดพลาดในการเชื่อมต่อ", "Connection error. Please check your network and try again."},
	Timeout:          {"ระบบตอบช้าเกินไป กรุณาลองใหม่อีกครั้ง", "The assistant is too slow to respond. Please retry."},

	FAQTitle:      {"คำถามที่พบบ่อย", "Frequently asked questions"},
	FAQSearch:     {"ค้นหาคำถาม...", "Search questions..."},
	FAQLoading:    {"กำลังโหลด...", "Loading..."},
	FAQEmpty:      {"ไม่พบข้อมูล", "No results"},
	FAQLoadFailed: {"โหลด FAQ ไม่สำเร็จ", "Could not load the FAQ"},
	FAQAsk:        {"ถามคำถามนี้", "Ask this question"},

	AdminPasswordRequired: {"กรุณาใส่รหัสผ่าน", "Please enter the password"},
	AdminLoginOK:          {"เข้าสู่ระบบสำเร็จ ✅", "Logged in ✅"},
	AdminLoginFailed:      {"ล็อกอินไม่สำเร็จ", "Login failed"},
	AdminNoToken:          {"ล็อกอินไม่สำเร็จ (ไม่พบ token)", "Login failed (no token in response)"},
	AdminNonJSON:          {"API ตอบกลับไม่ใช่ JSON (ตรวจ URL ของ API)", "The API did not answer with JSON (check the API URL)"},
	AdminNoAPIBase:        {"ยังไม่ได้ตั้งค่า URL ของ Admin API", "The admin API URL is not configured"},
	AdminLoading:          {"กำลังโหลด...", "Loading..."},
	AdminLoaded:           {"โหลดแล้ว %d รายการ", "Loaded %d entries"},
	AdminLoadFailed:       {"โหลดไม่สำเร็จ", "Load failed"},
	AdminSaving:           {"กำลังบันทึก...", "Saving..."},
	AdminSaved:            {"บันทึกสำเร็จ ✅ (%d รายการ)", "Saved ✅ (%d entries)"},
	AdminSaveFailed:       {"บันทึกไม่สำเร็จ", "Save failed"},
	AdminInvalidJSON:      {"JSON ไม่ถูกต้อง", "Invalid JSON"},
	AdminLoggedOut:        {"ออกจากระบบแล้ว", "Logged out"},
	AdminSessionExpired:   {"เซสชันหมดอายุ กรุณาเข้าสู่ระบบใหม่", "Session expired, please log in again"},
	AdminAdded:            {"เพิ่มรายการแล้ว", "Entry added"},
	AdminUpdated:          {"แก้ไขรายการแล้ว", "Entry updated"},
	AdminDeleted:          {"ลบรายการแล้ว", "Entry deleted"},
	AdminFieldsRequired:   {"กรุณากรอกคำถามและคำตอบ", "Question and answer are required"},
	AdminEdit:             {"แก้ไข", "Edit"},
	AdminDelete:           {"ลบ", "Delete"},
	AdminNetworkError:     {"เชื่อมต่อ API ไม่ได้", "Could not reach the API"},
}

var (
	supported = []language.Tag{language.Thai, language.English}
	matcher   = language.NewMatcher(supported)
	cat       = buildCatalog()
)

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, m := range messages {
		// SetString only fails on malformed tags; the tags here are constants.
		_ = b.SetString(language.Thai, string(key), m[0])
		_ = b.SetString(language.English, string(key), m[1])
	}
	return b
}

// Printer formats localized messages for one language.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// New returns a Printer for the best supported match of lang (a BCP 47 tag
// such as "th", "en-US"). Unknown or empty input selects Thai.
func New(lang string) *Printer {
	tag := language.Thai
	if lang != "" {
		if t, err := language.Parse(lang); err == nil {
			_, idx, conf := matcher.Match(t)
			if conf != language.No {
				tag = supported[idx]
			}
		}
	}
	return &Printer{tag: tag, p: message.NewPrinter(tag, message.Catalog(cat))}
}

// Default returns the Thai printer.
func Default() *Printer { return New("") }

// T renders the message for key with the given arguments.
func (p *Printer) T(key Key, args ...any) string {
	return p.p.Sprintf(string(key), args...)
}

// Language returns the tag this printer renders.
func (p *Printer) Language() language.Tag { return p.tag }
