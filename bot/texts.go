package bot

import (
	"fmt"
	"strings"

	"github.com/Dosada05/tournament-bot/models"
)

const (
	msgAdminWelcome     = "✅ Welcome back! You are an admin."
	msgActiveWelcome    = "✅ Welcome back! You have full access."
	msgBlocked          = "⛔ Your account is blocked. Contact administrator."
	msgPending          = "⌛ Your registration request is pending approval."
	msgSharePhone       = "📱 Please share your phone number using the button below:"
	msgSharePhoneButton = "📱 Share Phone Number"
	msgEnterFullName    = "👤 Please enter your full name:"
	msgNameTooLong      = "❌ Name too long (max 50 chars). Try again:"
	msgEnterComment     = "📝 Please enter your comment:"
	msgRegistered       = "✅ Registration submitted for approval!"
	msgDuplicate        = "⚠️ You already have a pending registration request!"
	msgPhoneUsed        = "⚠️ This phone number is already registered."
	msgStartOver        = "⚠️ Missing required information. Please start over."
	msgGenericError     = "⚠️ An error occurred. Please try again."
	msgCancelled        = "Cancelled."
	msgNothingToCancel  = "Nothing to cancel."
	msgHelp             = "/start - registration status\n/tournaments - tournament list\n/cancel - abort the current step"

	msgUserApproved = "🎉 Your registration was approved!"
	msgUserDenied   = "❌ Your registration was denied."

	msgAdminRequired      = "❌ Admin access required"
	msgNotActivated       = "⌛ Your registration must be approved before joining tournaments."
	msgRegistrationClosed = "⛔ This tournament is not accepting teams."
	msgTournamentNotFound = "Tournament not found"
	msgTeamNotFound       = "Team not found"
	msgUserNotFound       = "User not found"
	msgAlreadyInTeam      = "User already in team"
	msgMemberNotFound     = "Member not found"
	msgNoMembersToRemove  = "No members to remove"
	msgCannotRemoveCapt   = "Cannot remove team captain"
	msgCaptainOnly        = "Only the team captain can do this"
	msgTeamEnrolled       = "Team is already enrolled"
	msgAlreadyProcessed   = "Request was already processed"

	msgEnterTeamName     = "🏆 Please enter your team name:"
	msgEnterMemberPhone  = "📱 Please enter the phone number of the member to add:"
	msgSelectMember      = "Select member to remove:"
	msgSoloSubmitted     = "✅ Your participation request submitted!"
	msgTeamSubmitted     = "✅ Team submitted for approval!"
	msgTeamCancelled     = "Team creation cancelled"
	msgTeamApproved      = "Team approved!"
	msgTeamRejected      = "Team rejected"
	msgTournamentDeleted = "✅ Tournament deleted"
	msgTournamentInUse   = "❌ Tournament has teams. Remove them first."
	msgExportDisabled    = "Roster export is not configured"

	msgTournamentList    = "🏆 Tournament List:"
	msgNoTournaments     = "No tournaments yet."
	msgCreateTournament  = "Press ➕ Create New Tournament to create a new tournament"
	msgEditingTournament = "Editing tournament..."
)

const (
	btnApprove          = "✅ Approve"
	btnDeny             = "❌ Deny"
	btnDeleteRequest    = "🗑️ Delete Request"
	btnAddMember        = "➕ Add Member"
	btnRemoveMember     = "➖ Remove Member"
	btnSubmitTeam       = "✅ Submit Team"
	btnCancel           = "❌ Cancel"
	btnJoin             = "Join tournament"
	btnEdit             = "✏️ Edit"
	btnDelete           = "🗑️ Delete"
	btnExport           = "📄 Export rosters"
	btnCreateTournament = "➕ Create New Tournament"
	btnEditTournament   = "✏️ Edit Tournament"
	btnRefresh          = "✅ Tournament deleted. Click to refresh"
)

const dateLayout = "2006-01-02 15:04"

func useNameButton(profileName string) string {
	return "✅ Use " + profileName
}

func userRequestCard(u *models.User) string {
	return fmt.Sprintf("📨 New User Registration Request:\n"+
		"• User: %s (ID: %d)\n"+
		"• Phone: %s\n"+
		"• Comment: %s", u.FullName, u.ID, u.PhoneNumber, u.Comment)
}

func teamSubmissionCard(r *models.Roster) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 New Team Submission:\n• Tournament: %s\n• Team: %s\n• Captain: %s\n• Members:\n",
		r.Tournament.EventName, r.Team.Name, r.Captain.FullName)
	for i, m := range r.Members {
		if i > 0 {
			b.WriteByte('\n')
		}
		name, phone := memberContact(m)
		fmt.Fprintf(&b, "• %s (%s)", name, phone)
	}
	return b.String()
}

func teamManagementText(r *models.Roster) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 Team: %s\n👥 Members (%d/%d):\n", r.Team.Name, r.Size(), r.Tournament.PlayersRegistered)
	for _, m := range r.Members {
		name, _ := memberContact(m)
		flag := ""
		if r.IsCaptain(m.UserID) {
			flag = " (Captain)"
		}
		fmt.Fprintf(&b, "• %s%s\n", name, flag)
	}
	return b.String()
}

func teamSubmittedNotice(r *models.Roster) string {
	return fmt.Sprintf("✅ Your team %s has been submitted for tournament %s!", r.Team.Name, r.Tournament.EventName)
}

func teamApprovedNotice(r *models.Roster) string {
	return fmt.Sprintf("🎉 Your team %s has been approved for tournament %s!", r.Team.Name, r.Tournament.EventName)
}

func teamRejectedNotice(r *models.Roster) string {
	return fmt.Sprintf("❌ Your team %s has been rejected for tournament %s", r.Team.Name, r.Tournament.EventName)
}

func tournamentButtonText(t models.Tournament) string {
	return fmt.Sprintf("%s (%s)", t.EventName, t.EventDateTime.Format(dateLayout))
}

func tournamentDetailText(t models.Tournament, rosters []models.Roster, admin bool) string {
	comment := t.Comment
	if comment == "" {
		comment = "None"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 %s\n📅 Date: %s\n📍 Location: %s\n👥 Teams: %d\n⚽ Players in team: %d\n"+
		"🔄 Round Robin Rounds: %d\n🏁 Playoff Starts: %s\n📝 Comment: %s\n",
		t.EventName, t.EventDateTime.Format(dateLayout), t.LocationName, t.NumberOfTeams, t.PlayersPerGame,
		t.RoundRobinRounds, t.PlayoffStartsAt, comment)

	if !admin || len(rosters) == 0 {
		return b.String()
	}

	b.WriteString("\nTeams:\n")
	for i, r := range rosters {
		fmt.Fprintf(&b, "\n%d. %s (%s)\n👤 Captain: %s\n👥 Members (%d):\n",
			i+1, r.Team.Name, r.Team.Status, r.Captain.FullName, r.Size())
		for _, m := range r.Members {
			name, _ := memberContact(m)
			flag := ""
			if r.IsCaptain(m.UserID) {
				flag = " (Captain)"
			}
			fmt.Fprintf(&b, "   • %s%s\n", name, flag)
		}
	}
	return b.String()
}

func memberContact(m models.TeamMember) (name, phone string) {
	if m.User == nil {
		return fmt.Sprintf("#%d", m.UserID), ""
	}
	return m.User.FullName, m.User.PhoneNumber
}
