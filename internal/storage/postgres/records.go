package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"counsel/internal/integrity/models"
)

type StaffStore struct {
	db *sql.DB
}

const staffColumns = `id, guild_id, user_id, username, role, status, hired_at, created_at, updated_at`

func scanStaff(row rowScanner) (*models.Staff, error) {
	var s models.Staff
	var status string
	if err := row.Scan(&s.ID, &s.GuildID, &s.UserID, &s.Username, &s.Role, &status, &s.HiredAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Status = models.StaffStatus(status)
	return &s, nil
}

func (s *StaffStore) Save(ctx context.Context, st *models.Staff) error {
	query := `
		INSERT INTO staff (` + staffColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			guild_id = EXCLUDED.guild_id,
			user_id = EXCLUDED.user_id,
			username = EXCLUDED.username,
			role = EXCLUDED.role,
			status = EXCLUDED.status,
			hired_at = EXCLUDED.hired_at,
			updated_at = EXCLUDED.updated_at
	`
	return exec(ctx, s.db, models.EntityStaff, query,
		st.ID, st.GuildID, st.UserID, st.Username, st.Role, string(st.Status), st.HiredAt, st.CreatedAt, st.UpdatedAt)
}

func (s *StaffStore) Update(ctx context.Context, st *models.Staff) error {
	query := `
		UPDATE staff SET user_id = $2, username = $3, role = $4, status = $5, hired_at = $6, updated_at = $7
		WHERE id = $1
	`
	return execOne(ctx, s.db, models.EntityStaff, st.ID, query,
		st.ID, st.UserID, st.Username, st.Role, string(st.Status), st.HiredAt, st.UpdatedAt)
}

func (s *StaffStore) Delete(ctx context.Context, id string) error {
	return execOne(ctx, s.db, models.EntityStaff, id, `DELETE FROM staff WHERE id = $1`, id)
}

func (s *StaffStore) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	return queryOne(ctx, s.db, models.EntityStaff, id, scanStaff,
		`SELECT `+staffColumns+` FROM staff WHERE id = $1`+forUpdate(ctx), id)
}

func (s *StaffStore) FindByUserID(ctx context.Context, guildID, userID string) (*models.Staff, error) {
	return queryOne(ctx, s.db, models.EntityStaff, userID, scanStaff,
		`SELECT `+staffColumns+` FROM staff WHERE guild_id = $1 AND user_id = $2 ORDER BY created_at, id LIMIT 1`, guildID, userID)
}

func (s *StaffStore) FindByGuild(ctx context.Context, guildID string) ([]*models.Staff, error) {
	return queryMany(ctx, s.db, models.EntityStaff, scanStaff,
		`SELECT `+staffColumns+` FROM staff WHERE guild_id = $1 ORDER BY created_at, id`, guildID)
}

type CaseStore struct {
	db *sql.DB
}

const caseColumns = `id, guild_id, case_number, client_id, title, status, lead_attorney_id, assigned_lawyer_ids, created_at, updated_at`

func scanCase(row rowScanner) (*models.Case, error) {
	var c models.Case
	var status string
	var lawyers pq.StringArray
	if err := row.Scan(&c.ID, &c.GuildID, &c.CaseNumber, &c.ClientID, &c.Title, &status, &c.LeadAttorneyID, &lawyers, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Status = models.CaseStatus(status)
	c.AssignedLawyerIDs = []string(lawyers)
	return &c, nil
}

func lawyerArray(ids []string) any {
	if ids == nil {
		ids = []string{}
	}
	return pq.Array(ids)
}

func (s *CaseStore) Save(ctx context.Context, c *models.Case) error {
	query := `
		INSERT INTO cases (` + caseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			guild_id = EXCLUDED.guild_id,
			case_number = EXCLUDED.case_number,
			client_id = EXCLUDED.client_id,
			title = EXCLUDED.title,
			status = EXCLUDED.status,
			lead_attorney_id = EXCLUDED.lead_attorney_id,
			assigned_lawyer_ids = EXCLUDED.assigned_lawyer_ids,
			updated_at = EXCLUDED.updated_at
	`
	return exec(ctx, s.db, models.EntityCase, query,
		c.ID, c.GuildID, c.CaseNumber, c.ClientID, c.Title, string(c.Status), c.LeadAttorneyID, lawyerArray(c.AssignedLawyerIDs), c.CreatedAt, c.UpdatedAt)
}

func (s *CaseStore) Update(ctx context.Context, c *models.Case) error {
	query := `
		UPDATE cases SET case_number = $2, client_id = $3, title = $4, status = $5,
			lead_attorney_id = $6, assigned_lawyer_ids = $7, updated_at = $8
		WHERE id = $1
	`
	return execOne(ctx, s.db, models.EntityCase, c.ID, query,
		c.ID, c.CaseNumber, c.ClientID, c.Title, string(c.Status), c.LeadAttorneyID, lawyerArray(c.AssignedLawyerIDs), c.UpdatedAt)
}

func (s *CaseStore) Delete(ctx context.Context, id string) error {
	return execOne(ctx, s.db, models.EntityCase, id, `DELETE FROM cases WHERE id = $1`, id)
}

func (s *CaseStore) FindByID(ctx context.Context, id string) (*models.Case, error) {
	return queryOne(ctx, s.db, models.EntityCase, id, scanCase,
		`SELECT `+caseColumns+` FROM cases WHERE id = $1`+forUpdate(ctx), id)
}

func (s *CaseStore) FindByGuild(ctx context.Context, guildID string) ([]*models.Case, error) {
	return queryMany(ctx, s.db, models.EntityCase, scanCase,
		`SELECT `+caseColumns+` FROM cases WHERE guild_id = $1 ORDER BY created_at, id`, guildID)
}

type JobStore struct {
	db *sql.DB
}

const jobColumns = `id, guild_id, title, role_id, is_open, closed_at, created_at, updated_at`

func scanJob(row rowScanner) (*models.Job, error) {
	var j models.Job
	var closed sql.NullTime
	if err := row.Scan(&j.ID, &j.GuildID, &j.Title, &j.RoleID, &j.IsOpen, &closed, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	if closed.Valid {
		j.ClosedAt = &closed.Time
	}
	return &j, nil
}

func (s *JobStore) Save(ctx context.Context, j *models.Job) error {
	query := `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			guild_id = EXCLUDED.guild_id,
			title = EXCLUDED.title,
			role_id = EXCLUDED.role_id,
			is_open = EXCLUDED.is_open,
			closed_at = EXCLUDED.closed_at,
			updated_at = EXCLUDED.updated_at
	`
	return exec(ctx, s.db, models.EntityJob, query,
		j.ID, j.GuildID, j.Title, j.RoleID, j.IsOpen, j.ClosedAt, j.CreatedAt, j.UpdatedAt)
}

func (s *JobStore) Update(ctx context.Context, j *models.Job) error {
	query := `
		UPDATE jobs SET title = $2, role_id = $3, is_open = $4, closed_at = $5, updated_at = $6
		WHERE id = $1
	`
	return execOne(ctx, s.db, models.EntityJob, j.ID, query,
		j.ID, j.Title, j.RoleID, j.IsOpen, j.ClosedAt, j.UpdatedAt)
}

func (s *JobStore) Delete(ctx context.Context, id string) error {
	return execOne(ctx, s.db, models.EntityJob, id, `DELETE FROM jobs WHERE id = $1`, id)
}

func (s *JobStore) FindByID(ctx context.Context, id string) (*models.Job, error) {
	return queryOne(ctx, s.db, models.EntityJob, id, scanJob,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`+forUpdate(ctx), id)
}

func (s *JobStore) FindByGuild(ctx context.Context, guildID string) ([]*models.Job, error) {
	return queryMany(ctx, s.db, models.EntityJob, scanJob,
		`SELECT `+jobColumns+` FROM jobs WHERE guild_id = $1 ORDER BY created_at, id`, guildID)
}

type ApplicationStore struct {
	db *sql.DB
}

const applicationColumns = `id, guild_id, job_id, applicant_id, status, created_at, updated_at`

func scanApplication(row rowScanner) (*models.Application, error) {
	var a models.Application
	var status string
	if err := row.Scan(&a.ID, &a.GuildID, &a.JobID, &a.ApplicantID, &status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Status = models.ApplicationStatus(status)
	return &a, nil
}

func (s *ApplicationStore) Save(ctx context.Context, a *models.Application) error {
	query := `
		INSERT INTO applications (` + applicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			guild_id = EXCLUDED.guild_id,
			job_id = EXCLUDED.job_id,
			applicant_id = EXCLUDED.applicant_id,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`
	return exec(ctx, s.db, models.EntityApplication, query,
		a.ID, a.GuildID, a.JobID, a.ApplicantID, string(a.Status), a.CreatedAt, a.UpdatedAt)
}

func (s *ApplicationStore) Update(ctx context.Context, a *models.Application) error {
	query := `UPDATE applications SET job_id = $2, applicant_id = $3, status = $4, updated_at = $5 WHERE id = $1`
	return execOne(ctx, s.db, models.EntityApplication, a.ID, query,
		a.ID, a.JobID, a.ApplicantID, string(a.Status), a.UpdatedAt)
}

func (s *ApplicationStore) Delete(ctx context.Context, id string) error {
	return execOne(ctx, s.db, models.EntityApplication, id, `DELETE FROM applications WHERE id = $1`, id)
}

func (s *ApplicationStore) FindByID(ctx context.Context, id string) (*models.Application, error) {
	return queryOne(ctx, s.db, models.EntityApplication, id, scanApplication,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`+forUpdate(ctx), id)
}

func (s *ApplicationStore) FindByGuild(ctx context.Context, guildID string) ([]*models.Application, error) {
	return queryMany(ctx, s.db, models.EntityApplication, scanApplication,
		`SELECT `+applicationColumns+` FROM applications WHERE guild_id = $1 ORDER BY created_at, id`, guildID)
}

type RetainerStore struct {
	db *sql.DB
}

const retainerColumns = `id, guild_id, client_id, lawyer_id, status, created_at, updated_at`

func scanRetainer(row rowScanner) (*models.Retainer, error) {
	var r models.Retainer
	var status string
	if err := row.Scan(&r.ID, &r.GuildID, &r.ClientID, &r.LawyerID, &status, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Status = models.RetainerStatus(status)
	return &r, nil
}

func (s *RetainerStore) Save(ctx context.Context, r *models.Retainer) error {
	query := `
		INSERT INTO retainers (` + retainerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			guild_id = EXCLUDED.guild_id,
			client_id = EXCLUDED.client_id,
			lawyer_id = EXCLUDED.lawyer_id,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`
	return exec(ctx, s.db, models.EntityRetainer, query,
		r.ID, r.GuildID, r.ClientID, r.LawyerID, string(r.Status), r.CreatedAt, r.UpdatedAt)
}

func (s *RetainerStore) Update(ctx context.Context, r *models.Retainer) error {
	query := `UPDATE retainers SET client_id = $2, lawyer_id = $3, status = $4, updated_at = $5 WHERE id = $1`
	return execOne(ctx, s.db, models.EntityRetainer, r.ID, query,
		r.ID, r.ClientID, r.LawyerID, string(r.Status), r.UpdatedAt)
}

func (s *RetainerStore) Delete(ctx context.Context, id string) error {
	return execOne(ctx, s.db, models.EntityRetainer, id, `DELETE FROM retainers WHERE id = $1`, id)
}

func (s *RetainerStore) FindByID(ctx context.Context, id string) (*models.Retainer, error) {
	return queryOne(ctx, s.db, models.EntityRetainer, id, scanRetainer,
		`SELECT `+retainerColumns+` FROM retainers WHERE id = $1`+forUpdate(ctx), id)
}

func (s *RetainerStore) FindByGuild(ctx context.Context, guildID string) ([]*models.Retainer, error) {
	return queryMany(ctx, s.db, models.EntityRetainer, scanRetainer,
		`SELECT `+retainerColumns+` FROM retainers WHERE guild_id = $1 ORDER BY created_at, id`, guildID)
}

type FeedbackStore struct {
	db *sql.DB
}

const feedbackColumns = `id, guild_id, submitter_id, target_staff_id, rating, comment, is_for_firm, created_at, updated_at`

func scanFeedback(row rowScanner) (*models.Feedback, error) {
	var f models.Feedback
	if err := row.Scan(&f.ID, &f.GuildID, &f.SubmitterID, &f.TargetStaffID, &f.Rating, &f.Comment, &f.IsForFirm, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *FeedbackStore) Save(ctx context.Context, f *models.Feedback) error {
	query := `
		INSERT INTO feedback (` + feedbackColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			guild_id = EXCLUDED.guild_id,
			submitter_id = EXCLUDED.submitter_id,
			target_staff_id = EXCLUDED.target_staff_id,
			rating = EXCLUDED.rating,
			comment = EXCLUDED.comment,
			is_for_firm = EXCLUDED.is_for_firm,
			updated_at = EXCLUDED.updated_at
	`
	return exec(ctx, s.db, models.EntityFeedback, query,
		f.ID, f.GuildID, f.SubmitterID, f.TargetStaffID, f.Rating, f.Comment, f.IsForFirm, f.CreatedAt, f.UpdatedAt)
}

func (s *FeedbackStore) Update(ctx context.Context, f *models.Feedback) error {
	query := `
		UPDATE feedback SET submitter_id = $2, target_staff_id = $3, rating = $4, comment = $5,
			is_for_firm = $6, updated_at = $7
		WHERE id = $1
	`
	return execOne(ctx, s.db, models.EntityFeedback, f.ID, query,
		f.ID, f.SubmitterID, f.TargetStaffID, f.Rating, f.Comment, f.IsForFirm, f.UpdatedAt)
}

func (s *FeedbackStore) Delete(ctx context.Context, id string) error {
	return execOne(ctx, s.db, models.EntityFeedback, id, `DELETE FROM feedback WHERE id = $1`, id)
}

func (s *FeedbackStore) FindByID(ctx context.Context, id string) (*models.Feedback, error) {
	return queryOne(ctx, s.db, models.EntityFeedback, id, scanFeedback,
		`SELECT `+feedbackColumns+` FROM feedback WHERE id = $1`+forUpdate(ctx), id)
}

func (s *FeedbackStore) FindByGuild(ctx context.Context, guildID string) ([]*models.Feedback, error) {
	return queryMany(ctx, s.db, models.EntityFeedback, scanFeedback,
		`SELECT `+feedbackColumns+` FROM feedback WHERE guild_id = $1 ORDER BY created_at, id`, guildID)
}

type ReminderStore struct {
	db *sql.DB
}

const reminderColumns = `id, guild_id, user_id, case_id, message, scheduled_for, is_active, created_at, updated_at`

func scanReminder(row rowScanner) (*models.Reminder, error) {
	var r models.Reminder
	if err := row.Scan(&r.ID, &r.GuildID, &r.UserID, &r.CaseID, &r.Message, &r.ScheduledFor, &r.IsActive, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *ReminderStore) Save(ctx context.Context, r *models.Reminder) error {
	query := `
		INSERT INTO reminders (` + reminderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			guild_id = EXCLUDED.guild_id,
			user_id = EXCLUDED.user_id,
			case_id = EXCLUDED.case_id,
			message = EXCLUDED.message,
			scheduled_for = EXCLUDED.scheduled_for,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`
	return exec(ctx, s.db, models.EntityReminder, query,
		r.ID, r.GuildID, r.UserID, r.CaseID, r.Message, r.ScheduledFor, r.IsActive, r.CreatedAt, r.UpdatedAt)
}

func (s *ReminderStore) Update(ctx context.Context, r *models.Reminder) error {
	query := `
		UPDATE reminders SET user_id = $2, case_id = $3, message = $4, scheduled_for = $5,
			is_active = $6, updated_at = $7
		WHERE id = $1
	`
	return execOne(ctx, s.db, models.EntityReminder, r.ID, query,
		r.ID, r.UserID, r.CaseID, r.Message, r.ScheduledFor, r.IsActive, r.UpdatedAt)
}

func (s *ReminderStore) Delete(ctx context.Context, id string) error {
	return execOne(ctx, s.db, models.EntityReminder, id, `DELETE FROM reminders WHERE id = $1`, id)
}

func (s *ReminderStore) FindByID(ctx context.Context, id string) (*models.Reminder, error) {
	return queryOne(ctx, s.db, models.EntityReminder, id, scanReminder,
		`SELECT `+reminderColumns+` FROM reminders WHERE id = $1`+forUpdate(ctx), id)
}

func (s *ReminderStore) FindByGuild(ctx context.Context, guildID string) ([]*models.Reminder, error) {
	return queryMany(ctx, s.db, models.EntityReminder, scanReminder,
		`SELECT `+reminderColumns+` FROM reminders WHERE guild_id = $1 ORDER BY created_at, id`, guildID)
}
