package cli

var NewApp = newApp

var ParseAssessment = parseAssessment
