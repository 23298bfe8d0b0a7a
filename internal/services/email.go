package services

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"oriemap-backend/internal/models"
)

type EmailService struct {
	host        string
	port        string
	user        string
	pass        string
	from        string
	frontendURL string
	devMode     bool
}

func NewEmailService(host, port, user, pass, from, frontendURL string) *EmailService {
	devMode := host == "" || user == ""
	if devMode {
		log.Println("⚠ Email service running in DEV MODE (logging to console)")
	}
	return &EmailService{
		host:        host,
		port:        port,
		user:        user,
		pass:        pass,
		from:        from,
		frontendURL: frontendURL,
		devMode:     devMode,
	}
}

func (s *EmailService) SendExamReminderEmail(to, fullName string, exam models.Exam) error {
	dashboardURL := fmt.Sprintf("%s/dashboard", s.frontendURL)

	location := exam.Room
	if exam.Building != "" {
		location = fmt.Sprintf("%s, %s", exam.Room, exam.Building)
	}

	subject := fmt.Sprintf("Nhắc nhở: Kỳ thi %s sắp diễn ra", exam.Subject)
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Arial, sans-serif; margin: 0; padding: 0; background-color: #f8fafc;">
  <div style="max-width: 480px; margin: 40px auto; background: white; border-radius: 12px; box-shadow: 0 4px 24px rgba(0,0,0,0.08); overflow: hidden;">
    <div style="background: linear-gradient(135deg, #2563eb 0%%, #7c3aed 100%%); padding: 32px; text-align: center;">
      <h1 style="color: white; margin: 0; font-size: 24px; font-weight: 700;">OrieMap</h1>
      <p style="color: rgba(255,255,255,0.85); margin: 8px 0 0; font-size: 14px;">Định hướng nghề nghiệp cùng AI</p>
    </div>
    <div style="padding: 32px;">
      <h2 style="margin: 0 0 16px; font-size: 20px; color: #1e293b;">Xin chào %s,</h2>
      <p style="color: #64748b; font-size: 14px; line-height: 1.6; margin: 0 0 24px;">
        Bạn có kỳ thi sắp diễn ra. Đừng quên chuẩn bị thật tốt nhé!
      </p>
      <div style="background: #f1f5f9; border-radius: 8px; padding: 16px 20px; margin: 0 0 24px;">
        <p style="margin: 0 0 8px; color: #1e293b; font-size: 15px;"><strong>Môn thi:</strong> %s</p>
        <p style="margin: 0 0 8px; color: #1e293b; font-size: 15px;"><strong>Ngày:</strong> %s</p>
        <p style="margin: 0 0 8px; color: #1e293b; font-size: 15px;"><strong>Giờ:</strong> %s</p>
        <p style="margin: 0; color: #1e293b; font-size: 15px;"><strong>Địa điểm:</strong> %s</p>
      </div>
      <a href="%s" style="display: inline-block; background: #2563eb; color: white; text-decoration: none; padding: 12px 32px; border-radius: 8px; font-weight: 600; font-size: 14px;">
        Xem lịch thi
      </a>
      <p style="color: #94a3b8; font-size: 12px; margin: 24px 0 0;">
        Bạn nhận được email này vì đã bật nhắc nhở lịch thi trong phần cài đặt tài khoản.
      </p>
    </div>
  </div>
</body>
</html>`, fullName, exam.Subject, exam.Date, exam.Time, location, dashboardURL)

	return s.sendHTML(to, subject, body)
}

func (s *EmailService) sendHTML(to, subject, htmlBody string) error {
	if s.devMode {
		log.Printf("📧 [DEV EMAIL] To: %s | Subject: %s", to, subject)
		log.Printf("📧 Body:\n%s", htmlBody)
		return nil
	}

	headers := []string{
		fmt.Sprintf("From: %s", s.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}

	message := strings.Join(headers, "\r\n") + "\r\n\r\n" + htmlBody

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(message))
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	log.Printf("📧 Email sent to %s: %s", to, subject)
	return nil
}
