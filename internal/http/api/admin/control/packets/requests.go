package packets

// body for creating or replacing one schedule row
type ScheduleRequest struct {
	Date     string `json:"date" binding:"required"`
	Location string `json:"location" binding:"required"`
	Sehri    string `json:"sehri" binding:"required"`
	Iftar    string `json:"iftar" binding:"required"`
}

// query for GET /schedules
type ListSchedulesQuery struct {
	From     string `form:"from"`
	To       string `form:"to"`
	Location string `form:"location"`
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
}

type CreateHadithRequest struct {
	Text   string `json:"text" binding:"required"`
	Source string `json:"source"`
}
