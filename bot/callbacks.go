package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// Префиксы callback-данных. Идентификатор сущности следует сразу за префиксом.
const (
	cbApproveUser  = "approve_user_"
	cbDenyUser     = "deny_user_"
	cbDeleteUser   = "delete_user_"
	cbComposeTeam  = "compose_team_"
	cbAddMember    = "add_member_"
	cbRemoveMember = "remove_member_"
	cbSubmitTeam   = "submit_team_"
	cbCancelTeam   = "cancel_team_"
	cbApproveTeam  = "approve_team_"
	cbDenyTeam     = "deny_team_"

	cbViewTournament   = "view_tournament_"
	cbEditTournament   = "edit_tournament_"
	cbDeleteTournament = "delete_tournament_"
	cbExportTournament = "export_tournament_"
	cbAdminDeleteTeam  = "admin_delete_team_"
	cbAdminApproveTeam = "admin_approve_team_"

	cbRefreshTournaments = "refresh_tournaments"
)

// callbackPrefixes упорядочены так, чтобы более длинные префиксы проверялись раньше.
var callbackPrefixes = []string{
	cbAdminDeleteTeam, cbAdminApproveTeam,
	cbApproveUser, cbDenyUser, cbDeleteUser,
	cbComposeTeam, cbAddMember, cbRemoveMember, cbSubmitTeam, cbCancelTeam,
	cbApproveTeam, cbDenyTeam,
	cbViewTournament, cbEditTournament, cbDeleteTournament, cbExportTournament,
}

func callbackData(prefix string, id interface{}) string {
	return fmt.Sprintf("%s%v", prefix, id)
}

// parseCallback разбирает "<prefix><id>".
func parseCallback(data string) (prefix string, id int64, err error) {
	if data == cbRefreshTournaments {
		return data, 0, nil
	}
	for _, p := range callbackPrefixes {
		if strings.HasPrefix(data, p) {
			id, err = strconv.ParseInt(data[len(p):], 10, 64)
			if err != nil {
				return "", 0, fmt.Errorf("bad callback id in %q: %w", data, err)
			}
			return p, id, nil
		}
	}
	return "", 0, fmt.Errorf("unknown callback %q", data)
}
