package mappers

import (
	"strings"

	api "github.com/kaamsetu/kaamsetu/api/v1"
	"github.com/kaamsetu/kaamsetu/internal/auth"
	"github.com/kaamsetu/kaamsetu/internal/store/model"
)

type JobCreateForm struct {
	Title         string `validate:"not_blank"`
	Pay           int    `validate:"gt=0"`
	Location      string `validate:"not_blank"`
	EmployerPhone string `validate:"omitempty,phone"`
}

func JobCreateFormFromApi(resource api.JobCreate) JobCreateForm {
	return JobCreateForm{
		Title:         resource.Title,
		Pay:           resource.Pay,
		Location:      resource.Location,
		EmployerPhone: resource.EmployerPhone,
	}
}

// ToJob builds an open job. The employer's own phone is the contact channel unless the form names one.
func (f JobCreateForm) ToJob(employer auth.User) model.Job {
	phone := f.EmployerPhone
	if phone == "" {
		phone = employer.Phone
	}
	return model.NewJob(strings.TrimSpace(f.Title), f.Pay, strings.TrimSpace(f.Location), employer.ID, phone)
}

type ApplicationForm struct {
	WorkerName  string `validate:"not_blank"`
	WorkerPhone string `validate:"omitempty,phone"`
}

// ApplicationFormFromApi fills the form from the identity, letting the request override name and phone.
func ApplicationFormFromApi(worker auth.User, resource *api.ApplicationCreate) ApplicationForm {
	form := ApplicationForm{
		WorkerName:  worker.Name,
		WorkerPhone: worker.Phone,
	}
	if resource == nil {
		return form
	}
	if resource.WorkerName != "" {
		form.WorkerName = resource.WorkerName
	}
	if resource.WorkerPhone != "" {
		form.WorkerPhone = resource.WorkerPhone
	}
	return form
}

type CompletionForm struct {
	Rating *int    `validate:"omitempty,min=1,max=5"`
	Review *string `validate:"omitempty,max=1000"`
}

func CompletionFormFromApi(resource api.Complete) CompletionForm {
	return CompletionForm{Rating: resource.Rating, Review: resource.Review}
}
