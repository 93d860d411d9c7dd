package seeders

import (
	"yalla-business/pkg/constants"
	"yalla-business/pkg/utils"
)

const (
	demoCompanyName   = "ТОО «Демо Бизнес»"
	demoCompanyBudget = 500000
	demoAdminPassword = "DemoAdmin123!"
)

var demoProjects = []struct {
	Name              string
	Address           string
	ServiceType       constants.ServiceType
	CutoffTime        *string
	CompensationLimit int64
}{
	{Name: "Главный офис", Address: "г. Бишкек, пр. Чуй 100", ServiceType: constants.ServiceLunch},
	{Name: "Склад", Address: "г. Бишкек, ул. Ахунбаева 25", ServiceType: constants.ServiceLunch, CutoffTime: utils.ToPtr("09:30")},
	{Name: "Удалённая команда", Address: "г. Ош, ул. Ленина 5", ServiceType: constants.ServiceCompensation, CompensationLimit: 6000},
}

var demoEmployees = []struct {
	Project     int
	FullName    string
	Phone       string
	Position    string
	WorkingDays []int32
	Budget      int64
}{
	{Project: 0, FullName: "Асель Токтогулова", Phone: "+996700111001", Position: "Бухгалтер", WorkingDays: []int32{1, 2, 3, 4, 5}},
	{Project: 0, FullName: "Бакыт Исаков", Phone: "+996700111002", Position: "Юрист", WorkingDays: []int32{1, 3, 5}},
	{Project: 0, FullName: "Гульнара Осмонова", Phone: "+996700111003", Position: "Менеджер", WorkingDays: []int32{1, 2, 3, 4, 5}},
	{Project: 1, FullName: "Данияр Абдыкадыров", Phone: "+996700111004", Position: "Кладовщик", WorkingDays: []int32{1, 2, 3, 4, 5, 6}},
	{Project: 2, FullName: "Чолпон Жумабаева", Phone: "+996700111005", Position: "Разработчик", Budget: 5000},
	{Project: 2, FullName: "Эрлан Султанов", Phone: "+996700111006", Position: "Дизайнер"},
}
