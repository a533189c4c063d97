package dialogs

import (
	"fmt"
	"time"

	"github.com/aeg-helpline/server/internal/agent/model"
)

const (
	WelcomeMessage          = "Welcome to AEG's automated chat help line. What can we help you with today?\nSay something like \"asbestos\""
	NLUNotConfiguredMessage = "NOTE: NLU is not configured. To enable all capabilities, add `GEMINI_API_KEY` to the .env file. Keyword matching is used until then."
	AsbestosMessage         = "It looks like you need help with an asbestos problem. Would you like to book an appointment for an inspection?"
	ConfirmMessage          = "Great! Let's get started with creating you an appointment. First we need to ask a few questions. Will you be paying for this inspection with insurance or out of pocket?"
	WhatElseMessage         = "What else can I do for you?"

	CarrierPrompt      = "What insurance provider would you like to use? You can click or type the card name"
	CarrierRetryPrompt = "That was not a valid choice, please select a card or number from 1 to 4."
	InsuranceNumberMsg = "Please provide the insurance number on your account"

	AddressPrompt     = "What is the street address of the property you would like inspected?"
	CityPrompt        = "In which city is the property?"
	DatePrompt        = "On what date would you like the inspection?"
	DateRetryPrompt   = "I'm sorry, for best results, please enter the inspection date including the month, day and year. It cannot be in the past."
	ConfirmRetryText  = "Please answer yes or no."
	HelpMessage       = "I can book an asbestos inspection for you and look up your insurance account. Say \"asbestos\" to get started, or \"cancel\" to start over."
	CancelMessage     = "Cancelling..."
	displayDateLayout = "Monday, January 2, 2006"
)

// DidNotUnderstandMessage is the restart message for an unhandled intent.
func DidNotUnderstandMessage(intent string) string {
	return fmt.Sprintf("Sorry, I didn't get that. Please try asking in a different way (intent was %s)", intent)
}

// InsuranceFoundMessage confirms the insurance account lookup.
func InsuranceFoundMessage(d model.InsuranceDetails) string {
	return fmt.Sprintf("Your insurance account with %s and account number %s was found!", d.Carrier, d.InsuranceNumber)
}

// BookingConfirmPrompt summarises the booking before it is confirmed.
func BookingConfirmPrompt(d model.BookingDetails) string {
	return fmt.Sprintf("Please confirm, you would like an asbestos inspection at %s in %s on %s. Is this correct?",
		d.Destination, d.Origin, DisplayDate(d.TravelDate))
}

// BookedMessage is sent once the booking dialog returned details.
func BookedMessage(d model.BookingDetails) string {
	return fmt.Sprintf("You are all booked for an asbestos inspection on %s at the address %s in %s. One of our inspectors will be there at 8am.",
		DisplayDate(d.TravelDate), d.Destination, d.Origin)
}

// DisplayDate renders a YYYY-MM-DD date for messages, or the input unchanged
// when it does not parse.
func DisplayDate(isoDate string) string {
	t, err := time.Parse(time.DateOnly, isoDate)
	if err != nil {
		return isoDate
	}
	return t.Format(displayDateLayout)
}
