package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type seedSection struct {
	Section
	keywords string
}

var seedSections = []seedSection{
	{Section{"302", "Murder",
		"Whoever commits murder shall be punished with death, or imprisonment for life, and shall also be liable to fine.",
		"Applies when someone intentionally causes death of another person with premeditation or during commission of another crime.",
		"Death penalty or life imprisonment plus fine. Non-bailable and non-compoundable offense.",
		"Offences against Human Body"}, "murder, killing, death, homicide"},
	{Section{"376", "Rape",
		"Whoever commits rape shall be punished with rigorous imprisonment for a term not less than seven years.",
		"Sexual assault against women without consent, including situations involving minors, public servants, or armed forces.",
		"Minimum 7 years rigorous imprisonment, extendable to 10 years or life imprisonment plus fine. Death penalty in certain aggravated cases.",
		"Offences against Women"}, "rape, sexual assault, women, crime"},
	{Section{"420", "Cheating",
		"Whoever cheats and thereby dishonestly induces the person deceived to deliver any property.",
		"Fraudulent schemes, fake investments, document forgery, online scams, or any deception to obtain money/property.",
		"Imprisonment up to 7 years and fine. Cognizable, non-bailable offense. Victim can file complaint.",
		"Offences against Property"}, "cheating, fraud, dishonesty, property"},
	{Section{"498A", "Cruelty by husband or relatives",
		"Whoever subjects any woman to cruelty shall be punished with imprisonment.",
		"Domestic violence, dowry harassment, mental/physical torture by husband or in-laws after marriage.",
		"Imprisonment up to 3 years and fine. Non-bailable, cognizable offense. Special courts handle such cases.",
		"Offences against Women"}, "dowry, harassment, cruelty, domestic violence"},
	{Section{"354", "Assault on women",
		"Whoever assaults or uses criminal force to any woman, intending to outrage her modesty.",
		"Inappropriate touching, sexual harassment, stalking, or any act intended to outrage woman's modesty.",
		"Imprisonment from 1 to 5 years and fine. Cognizable, non-bailable offense with fast-track courts.",
		"Offences against Women"}, "assault, women, modesty, harassment"},
	{Section{"379", "Theft",
		"Whoever intends to take dishonestly any movable property out of the possession of any person.",
		"Stealing money, goods, vehicles, or any movable property without owner's consent from any place.",
		"Imprisonment up to 3 years or fine or both. Bailable offense. Punishment increases for repeat offenders.",
		"Offences against Property"}, "theft, stealing, property, dishonesty"},
	{Section{"323", "Voluntarily causing hurt",
		"Whoever voluntarily causes hurt shall be punished with imprisonment.",
		"Physical assault causing pain, injury, or harm but not endangering life or causing grievous hurt.",
		"Imprisonment up to 1 year or fine up to ₹1000 or both. Bailable, non-cognizable offense.",
		"Offences against Human Body"}, "hurt, injury, assault, violence"},
	{Section{"506", "Criminal intimidation",
		"Whoever commits criminal intimidation shall be punished with imprisonment.",
		"Threatening someone with injury to person, reputation, or property to cause alarm or coerce action.",
		"Imprisonment up to 2 years or fine or both. If threat is of death/grievous hurt, up to 7 years imprisonment.",
		"Offences against Public Tranquility"}, "intimidation, threat, fear, criminal"},
	{Section{"294", "Obscene acts",
		"Whoever does any obscene act in any public place shall be punished.",
		"Singing, reciting, or uttering obscene songs, ballads, or words in public places causing annoyance.",
		"Imprisonment up to 3 months or fine or both. Bailable offense handled by magistrate courts.",
		"Offences against Public Tranquility"}, "obscenity, public nuisance, indecency"},
	{Section{"406", "Criminal breach of trust",
		"Whoever commits criminal breach of trust shall be punished.",
		"Misappropriation of money/property entrusted by employer, client, or in fiduciary capacity.",
		"Imprisonment up to 3 years or fine or both. Non-bailable if amount exceeds certain limits.",
		"Offences against Property"}, "breach of trust, embezzlement, misappropriation"},
}

var seedTemplates = []Template{
	{
		Name:     "Rental Agreement",
		Category: "Property",
		Content: `RENTAL AGREEMENT

This agreement is made between:
Landlord: [LANDLORD_NAME]
Tenant: [TENANT_NAME]

Property Address: [PROPERTY_ADDRESS]
Monthly Rent: Rs. [RENT_AMOUNT]
Security Deposit: Rs. [DEPOSIT_AMOUNT]
Lease Period: [LEASE_PERIOD]

Terms and Conditions:
1. Rent to be paid by [PAYMENT_DATE] of each month
2. Security deposit refundable upon vacating
3. No subletting without written consent
4. Maintenance of property is tenant's responsibility

Signatures:
Landlord: ________________
Tenant: ________________
Date: ________________`,
		Description: "Standard rental agreement template for residential properties",
	},
	{
		Name:     "Employment Contract",
		Category: "Employment",
		Content: `EMPLOYMENT AGREEMENT

Employee: [EMPLOYEE_NAME]
Employer: [COMPANY_NAME]
Position: [JOB_TITLE]
Start Date: [START_DATE]
Salary: Rs. [SALARY_AMOUNT] per month

Job Responsibilities:
[JOB_DESCRIPTION]

Terms:
1. Probation period: [PROBATION_PERIOD]
2. Working hours: [WORKING_HOURS]
3. Leave entitlement: [LEAVE_DAYS] days per year
4. Notice period: [NOTICE_PERIOD]

Employee Signature: ________________
Employer Signature: ________________
Date: ________________`,
		Description: "Basic employment contract template",
	},
	{
		Name:     "Legal Notice",
		Category: "Legal Proceedings",
		Content: `LEGAL NOTICE

To: [RECIPIENT_NAME]
Address: [RECIPIENT_ADDRESS]

Subject: [NOTICE_SUBJECT]

Dear Sir/Madam,

I, [SENDER_NAME], through this legal notice, bring to your attention the following:

[NOTICE_CONTENT]

You are hereby called upon to [DEMANDED_ACTION] within [TIME_PERIOD] days from receipt of this notice, failing which my client will be constrained to initiate appropriate legal proceedings against you.

This notice is issued without prejudice to any other rights and remedies available to my client.

Yours faithfully,
[ADVOCATE_NAME]
Advocate for [CLIENT_NAME]`,
		Description: "Legal notice template for various disputes",
	},
}

// seed inserts the sample sections and templates in one transaction, but only
// into an empty sections table.
func (s *Store) seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ipc_sections`).Scan(&count); err != nil {
		return fmt.Errorf("count sections: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for _, sec := range seedSections {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ipc_sections (section_number, title, description, applicable_context, punishment, category, keywords)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sec.Number, sec.Title, sec.Description, sec.Context, sec.Punishment, sec.Category, sec.keywords); err != nil {
			return fmt.Errorf("seed section %s: %w", sec.Number, err)
		}
	}

	for _, t := range seedTemplates {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO legal_templates (template_name, category, template_content, description)
			VALUES (?, ?, ?, ?)`,
			t.Name, t.Category, t.Content, t.Description); err != nil {
			return fmt.Errorf("seed template %s: %w", t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	s.log.Info("seeded sample data",
		zap.Int("sections", len(seedSections)),
		zap.Int("templates", len(seedTemplates)),
	)
	return nil
}
